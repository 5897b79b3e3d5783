package common

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityID is the stable integer identity of an entity within one game process
//
// Zero is never assigned and stands for "no entity".
type EntityID uint32

// IsNil returns if EntityID is nil
func (id EntityID) IsNil() bool {
	return id == 0
}

func (id EntityID) String() string {
	return fmt.Sprintf("#%d", uint32(id))
}

// ClientID type
type ClientID string

// CLIENTID_LENGTH is the length of Client IDs
const CLIENTID_LENGTH = 36

// GenClientID generates a new Client ID
func GenClientID() ClientID {
	return ClientID(uuid.NewString())
}

// IsNil returns if ClientID is nil
func (id ClientID) IsNil() bool {
	return id == ""
}
