package core

import (
	"github.com/google/uuid"

	"pkt.systems/codepane/schema"
)

func newID() schema.TabID {
	return schema.TabID(uuid.NewString())
}
