package cfdp

import "fmt"

type FilestoreActionCode uint8

const (
	FilestoreCreateFile      FilestoreActionCode = 0b0000
	FilestoreDeleteFile      FilestoreActionCode = 0b0001
	FilestoreRenameFile      FilestoreActionCode = 0b0010
	FilestoreAppendFile      FilestoreActionCode = 0b0011
	FilestoreReplaceFile     FilestoreActionCode = 0b0100
	FilestoreCreateDirectory FilestoreActionCode = 0b0101
	FilestoreRemoveDirectory FilestoreActionCode = 0b0110
	FilestoreDenyFile        FilestoreActionCode = 0b0111
	FilestoreDenyDirectory   FilestoreActionCode = 0b1000
)

func (a FilestoreActionCode) Valid() bool {
	return a <= FilestoreDenyDirectory
}

// RequiresSecondFile reports whether the action names two files.
func (a FilestoreActionCode) RequiresSecondFile() bool {
	return a == FilestoreRenameFile || a == FilestoreAppendFile || a == FilestoreReplaceFile
}

func (a FilestoreActionCode) String() string {
	switch a {
	case FilestoreCreateFile:
		return "create-file"
	case FilestoreDeleteFile:
		return "delete-file"
	case FilestoreRenameFile:
		return "rename-file"
	case FilestoreAppendFile:
		return "append-file"
	case FilestoreReplaceFile:
		return "replace-file"
	case FilestoreCreateDirectory:
		return "create-directory"
	case FilestoreRemoveDirectory:
		return "remove-directory"
	case FilestoreDenyFile:
		return "deny-file"
	case FilestoreDenyDirectory:
		return "deny-directory"
	}
	return fmt.Sprintf("filestore-action(%d)", uint8(a))
}

// FilestoreStatus is the 4-bit status of a filestore response.
// Values other than success and not-performed depend on the action.
type FilestoreStatus uint8

const (
	FilestoreSuccessful   FilestoreStatus = 0b0000
	FilestoreNotPerformed FilestoreStatus = 0b1111

	// create file
	CreateNotAllowed FilestoreStatus = 0b0001
	// delete file
	DeleteFileDoesNotExist FilestoreStatus = 0b0001
	DeleteNotAllowed       FilestoreStatus = 0b0010
	// rename file
	RenameOldFileDoesNotExist  FilestoreStatus = 0b0001
	RenameNewFileAlreadyExists FilestoreStatus = 0b0010
	RenameNotAllowed           FilestoreStatus = 0b0011
	// append file, replace file
	FirstFileDoesNotExist  FilestoreStatus = 0b0001
	SecondFileDoesNotExist FilestoreStatus = 0b0010
	TwoFileNotAllowed      FilestoreStatus = 0b0011
	// create directory
	DirectoryCannotBeCreated FilestoreStatus = 0b0001
	// remove directory
	DirectoryDoesNotExist     FilestoreStatus = 0b0001
	RemoveDirectoryNotAllowed FilestoreStatus = 0b0010
	// deny file, deny directory
	DenyNotAllowed FilestoreStatus = 0b0010
)

// FilestoreRequestTlv asks the receiving entity to perform a filestore action.
type FilestoreRequestTlv struct {
	Action     FilestoreActionCode
	FirstFile  Lv
	SecondFile Lv
}

func (FilestoreRequestTlv) TlvType() TlvType { return TlvFilestoreRequest }

func (r FilestoreRequestTlv) valueSize() int {
	n := 1 + r.FirstFile.SerializedSize()
	if r.Action.RequiresSecondFile() {
		n += r.SecondFile.SerializedSize()
	}
	return n
}

func (r FilestoreRequestTlv) encodeValue(buf []byte) {
	buf[0] = uint8(r.Action) << 4
	pos := 1
	n, _ := r.FirstFile.Serialize(buf[pos:])
	pos += n
	if r.Action.RequiresSecondFile() {
		r.SecondFile.Serialize(buf[pos:])
	}
}

func decodeFilestoreRequest(value []byte) (FilestoreRequestTlv, error) {
	r := FilestoreRequestTlv{}
	action, first, second, _, err := decodeFilestoreBase(value)
	if err != nil {
		return r, err
	}
	r.Action = action
	r.FirstFile = first
	r.SecondFile = second
	return r, nil
}

// FilestoreResponseTlv reports the outcome of a filestore request.
type FilestoreResponseTlv struct {
	Action     FilestoreActionCode
	Status     FilestoreStatus
	FirstFile  Lv
	SecondFile Lv
	Message    Lv
}

func (FilestoreResponseTlv) TlvType() TlvType { return TlvFilestoreResponse }

func (r FilestoreResponseTlv) valueSize() int {
	n := 1 + r.FirstFile.SerializedSize() + r.Message.SerializedSize()
	if r.Action.RequiresSecondFile() {
		n += r.SecondFile.SerializedSize()
	}
	return n
}

func (r FilestoreResponseTlv) encodeValue(buf []byte) {
	buf[0] = uint8(r.Action)<<4 | uint8(r.Status)&0x0f
	pos := 1
	n, _ := r.FirstFile.Serialize(buf[pos:])
	pos += n
	if r.Action.RequiresSecondFile() {
		n, _ = r.SecondFile.Serialize(buf[pos:])
		pos += n
	}
	r.Message.Serialize(buf[pos:])
}

func decodeFilestoreResponse(value []byte) (FilestoreResponseTlv, error) {
	r := FilestoreResponseTlv{}
	action, first, second, rest, err := decodeFilestoreBase(value)
	if err != nil {
		return r, err
	}
	msg, _, err := ParseLv(rest)
	if err != nil {
		return r, subfieldErr(ErrFilestoreResponseCantParseFsMessage, "message", err)
	}
	r.Action = action
	r.Status = FilestoreStatus(value[0] & 0x0f)
	r.FirstFile = first
	r.SecondFile = second
	r.Message = msg
	return r, nil
}

// decodeFilestoreBase decodes the part shared by requests and responses:
// the action nibble and one or two file names. It returns the remainder.
func decodeFilestoreBase(value []byte) (FilestoreActionCode, Lv, Lv, []byte, error) {
	if len(value) < 1 {
		return 0, Lv{}, Lv{}, nil, fmt.Errorf("%w: filestore TLV without action code", ErrInvalidTlvType)
	}
	action := FilestoreActionCode(value[0] >> 4)
	if !action.Valid() {
		return 0, Lv{}, Lv{}, nil, fmt.Errorf("%w: filestore action %d", ErrInvalidTlvType, action)
	}
	pos := 1
	first, n, err := ParseLv(value[pos:])
	if err != nil {
		return 0, Lv{}, Lv{}, nil, subfieldErr(ErrInvalidTlvType, "first file name", err)
	}
	pos += n

	second := Lv{}
	if action.RequiresSecondFile() {
		second, n, err = ParseLv(value[pos:])
		if err != nil {
			return 0, Lv{}, Lv{}, nil, fmt.Errorf("%w: %s", ErrFilestoreRequiresSecondFile, action)
		}
		pos += n
	}
	return action, first, second, value[pos:], nil
}
