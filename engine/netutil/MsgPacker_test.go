package netutil

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/xiaonanln/typeconv"
)

func testUpdate() *proto.FieldUpdate {
	return &proto.FieldUpdate{
		Type:     proto.MT_FIELD_UPDATE_ON_CLIENT,
		EntityID: 42,
		Field:    "setVictors",
		Args:     []interface{}{[]interface{}{7, 9, 0, 0}, map[string]interface{}{"floor": 2}},
	}
}

func BenchmarkMessagePackMsgPacker(b *testing.B) {
	benchmarkMsgPacker(b, MessagePackMsgPacker{})
}

func BenchmarkJSONMsgPacker(b *testing.B) {
	benchmarkMsgPacker(b, JSONMsgPacker{})
}

func benchmarkMsgPacker(b *testing.B, packer MsgPacker) {
	update := testUpdate()
	var totalSize int64
	buf := make([]byte, 0, 128)
	for i := 0; i < b.N; i++ {
		data, _ := packer.PackMsg(update, buf[:0])
		totalSize += int64(len(data))

		var restored proto.FieldUpdate
		_ = packer.UnpackMsg(data, &restored)
	}
	b.Logf("%T: average size %d", packer, totalSize/int64(b.N))
}

// Clients read nested args as string keyed maps and numbers of any width, whatever the packer
func TestPackersKeepUpdateArgs(t *testing.T) {
	for _, packer := range []MsgPacker{MessagePackMsgPacker{}, JSONMsgPacker{}} {
		data, err := packer.PackMsg(testUpdate(), nil)
		assert.Equal(t, nil, err)
		if !packer.Binary() {
			assert.NotEqual(t, byte('\n'), data[len(data)-1])
		}

		var update proto.FieldUpdate
		assert.Equal(t, nil, packer.UnpackMsg(data, &update))
		assert.Equal(t, "setVictors", update.Field)
		assert.Equal(t, 2, len(update.Args))
		victors := update.Args[0].([]interface{})
		assert.Equal(t, int64(9), typeconv.Int(victors[1]))
		opts, ok := update.Args[1].(map[string]interface{})
		assert.T(t, ok, "packer should unpack args as map[string]interface{}")
		assert.Equal(t, int64(2), typeconv.Int(opts["floor"]))
	}
}

func TestUnpackGarbage(t *testing.T) {
	var req proto.ClientRequest
	assert.NotEqual(t, nil, MessagePackMsgPacker{}.UnpackMsg([]byte{0xc1}, &req))
	assert.NotEqual(t, nil, JSONMsgPacker{}.UnpackMsg([]byte("{"), &req))
}

func TestGetMsgPacker(t *testing.T) {
	p, err := GetMsgPacker("json")
	assert.Equal(t, nil, err)
	assert.T(t, !p.Binary())
	p, err = GetMsgPacker("")
	assert.Equal(t, nil, err)
	assert.T(t, p.Binary(), "msgpack is the default")
	_, err = GetMsgPacker("gob")
	assert.NotEqual(t, nil, err)
}
