package netutil

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

// MsgPacker is used to packs and unpacks messages
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
	// Binary tells whether packed messages travel as binary or text websocket frames
	Binary() bool
}

var msgPackers = map[string]MsgPacker{
	"msgpack": MessagePackMsgPacker{},
	"json":    JSONMsgPacker{},
}

// GetMsgPacker returns the packer of the format name used in config files, msgpack if name is empty
func GetMsgPacker(name string) (MsgPacker, error) {
	if name == "" {
		name = "msgpack"
	}
	packer, ok := msgPackers[name]
	if !ok {
		return nil, errors.Errorf("unknown packer: %s", name)
	}
	return packer, nil
}

// MessagePackMsgPacker packs and unpacks message in MessagePack format
type MessagePackMsgPacker struct{}

// PackMsg appends msg to buf in MessagePack format
func (mp MessagePackMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)
	if err := msgpack.NewEncoder(buffer).Encode(msg); err != nil {
		return buf, errors.Wrapf(err, "msgpack %T", msg)
	}
	return buffer.Bytes(), nil
}

// UnpackMsg unpacks bytes in MessagePack format to message
func (mp MessagePackMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	return errors.Wrap(msgpack.Unmarshal(data, msg), "msgpack")
}

// Binary implements MsgPacker
func (mp MessagePackMsgPacker) Binary() bool { return true }

// JSONMsgPacker packs and unpacks messages in JSON format, for clients that can not read msgpack
type JSONMsgPacker struct{}

// PackMsg appends msg to buf in JSON format
func (mp JSONMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)
	if err := json.NewEncoder(buffer).Encode(msg); err != nil {
		return buf, errors.Wrapf(err, "json %T", msg)
	}
	buf = buffer.Bytes()
	return buf[:len(buf)-1], nil // encoder always put '\n' at the end, we trim it
}

// UnpackMsg unpacks bytes of JSON format to message
func (mp JSONMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	return errors.Wrap(json.Unmarshal(data, msg), "json")
}

// Binary implements MsgPacker
func (mp JSONMsgPacker) Binary() bool { return false }
