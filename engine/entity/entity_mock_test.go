package entity_test

import (
	"testing"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/entity/mock_entity"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/cogoffice/battlezone/engine/sched"
	"go.uber.org/mock/gomock"
)

type orderedAvatar struct {
	entity.Entity
}

func init() {
	entity.RegisterEntity("orderedAvatar", &orderedAvatar{})
}

func fieldUpdate(field string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		u, ok := x.(*proto.FieldUpdate)
		return ok && u.Type == proto.MT_FIELD_UPDATE_ON_CLIENT && u.Field == field
	})
}

func TestUpdatesArriveInCallOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_entity.NewMockUpdateSink(ctrl)
	mgr := entity.NewManager(sched.NewManual(time.Unix(0, 0)), sink)

	e := mgr.CreateEntity("orderedAvatar", nil, entity.Vector3{})
	sink.EXPECT().SendFieldUpdate(gomock.Any(), gomock.Any()).Times(1) // create on client
	e.SetClient(entity.MakeGameClient("c1", sink))

	gomock.InOrder(
		sink.EXPECT().SendFieldUpdate(gomock.Eq(commonClient("c1")), fieldUpdate("setAttackState")),
		sink.EXPECT().SendFieldUpdate(gomock.Eq(commonClient("c1")), fieldUpdate("updateAttackAmmo")),
	)
	e.SendUpdate("setAttackState", 1)
	e.SendUpdate("updateAttackAmmo", 1, 2, 3, 4, 5, 6)
}

func commonClient(id string) any {
	return common.ClientID(id)
}
