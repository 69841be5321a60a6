package cfdp

import "fmt"

// PromptInfo holds the fields of a Prompt PDU.
type PromptInfo struct {
	Response PromptResponse
}

type PromptPduCreator struct {
	conf *PduConfig
	Info *PromptInfo
}

func NewPromptPduCreator(conf *PduConfig, info *PromptInfo) *PromptPduCreator {
	return &PromptPduCreator{conf: conf, Info: info}
}

func (c *PromptPduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, 1)
}

func (c *PromptPduCreator) Serialize(buf []byte) (int, error) {
	h, err := directiveHeader(c.conf, 1)
	if err != nil {
		return 0, err
	}
	pos, err := serializeDirective(buf, h, DirectivePrompt)
	if err != nil {
		return 0, err
	}
	buf[pos] = uint8(c.Info.Response&1) << 7
	return pos + 1, nil
}

type PromptPduReader struct {
	FileDirectiveReader
	Info PromptInfo
}

func ParsePromptPdu(buf []byte) (*PromptPduReader, error) {
	r, err := parseDirective(buf, DirectivePrompt)
	if err != nil {
		return nil, err
	}
	payload := r.Payload()
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: prompt response missing", ErrInvalidPduDataFieldLen)
	}
	return &PromptPduReader{
		FileDirectiveReader: r,
		Info:                PromptInfo{Response: PromptResponse(payload[0] >> 7)},
	}, nil
}
