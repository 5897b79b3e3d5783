package kvdbrediscluster

import (
	"testing"

	"github.com/cogoffice/battlezone/engine/kvdb/types"
)

var _ kvdbtypes.Engine = &redisClusterKVDB{}

func TestFindNotSupported(t *testing.T) {
	db := &redisClusterKVDB{}
	if _, err := db.Find("a", "b"); err != ErrFindNotSupported {
		t.Fatalf("Find should be rejected, got %v", err)
	}
	db.Close()
}
