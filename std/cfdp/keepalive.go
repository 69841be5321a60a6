package cfdp

// KeepAliveInfo holds the progress reported by a Keep Alive PDU.
type KeepAliveInfo struct {
	Progress FileSize
}

type KeepAlivePduCreator struct {
	conf *PduConfig
	Info *KeepAliveInfo
}

func NewKeepAlivePduCreator(conf *PduConfig, info *KeepAliveInfo) *KeepAlivePduCreator {
	return &KeepAlivePduCreator{conf: conf, Info: info}
}

func (c *KeepAlivePduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, fileSizeLen(c.conf))
}

func (c *KeepAlivePduCreator) Serialize(buf []byte) (int, error) {
	h, err := directiveHeader(c.conf, fileSizeLen(c.conf))
	if err != nil {
		return 0, err
	}
	progress, err := wireFileSize(c.conf, c.Info.Progress)
	if err != nil {
		return 0, err
	}
	pos, err := serializeDirective(buf, h, DirectiveKeepAlive)
	if err != nil {
		return 0, err
	}
	n, _ := progress.Serialize(buf[pos:])
	return pos + n, nil
}

type KeepAlivePduReader struct {
	FileDirectiveReader
	Info KeepAliveInfo
}

func ParseKeepAlivePdu(buf []byte) (*KeepAlivePduReader, error) {
	r, err := parseDirective(buf, DirectiveKeepAlive)
	if err != nil {
		return nil, err
	}
	progress, _, err := r.readFileSize(r.Payload())
	if err != nil {
		return nil, err
	}
	return &KeepAlivePduReader{FileDirectiveReader: r, Info: KeepAliveInfo{Progress: progress}}, nil
}
