package entity

import (
	"sync"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/proto"
)

// UpdateRecorder is an UpdateSink that keeps every update per client, used by bots replaying a session and by tests
type UpdateRecorder struct {
	mu      sync.Mutex
	updates map[common.ClientID][]*proto.FieldUpdate
}

// NewUpdateRecorder creates an empty recorder
func NewUpdateRecorder() *UpdateRecorder {
	return &UpdateRecorder{updates: map[common.ClientID][]*proto.FieldUpdate{}}
}

// SendFieldUpdate records the update
func (r *UpdateRecorder) SendFieldUpdate(clientid common.ClientID, update *proto.FieldUpdate) {
	r.mu.Lock()
	r.updates[clientid] = append(r.updates[clientid], update)
	r.mu.Unlock()
}

// Updates returns the updates received by the client in order
func (r *UpdateRecorder) Updates(clientid common.ClientID) []*proto.FieldUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*proto.FieldUpdate(nil), r.updates[clientid]...)
}

// Fields returns the args of every field update of the name received by the client
func (r *UpdateRecorder) Fields(clientid common.ClientID, field string) [][]interface{} {
	var res [][]interface{}
	for _, u := range r.Updates(clientid) {
		if u.Type == proto.MT_FIELD_UPDATE_ON_CLIENT && u.Field == field {
			res = append(res, u.Args)
		}
	}
	return res
}

// Reset forgets all recorded updates
func (r *UpdateRecorder) Reset() {
	r.mu.Lock()
	r.updates = map[common.ClientID][]*proto.FieldUpdate{}
	r.mu.Unlock()
}
