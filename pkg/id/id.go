package id

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/cespare/xxhash"
)

type Unique = int64

var (
	MyID      = getNodeID()
	generator = new(idGenerator)
)

type idGenerator struct {
	node *snowflake.Node
	once sync.Once
}

func (g *idGenerator) nextID() int64 {
	g.once.Do(func() {
		node, err := snowflake.NewNode(MyID)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize snowflake node: %s", err))
		}
		g.node = node
	})
	return g.node.Generate().Int64()
}

func New() Unique {
	return generator.nextID()
}

// NewString returns a fresh id in its decimal form, as handed to message callers.
func NewString() string {
	return strconv.FormatInt(New(), 10)
}

// getNodeID derives the snowflake node from the first hardware address so ids
// stay distinct between machines sharing a settings store.
func getNodeID() int64 {
	interfaces, err := net.Interfaces()
	if err != nil {
		return 1
	}

	for _, i := range interfaces {
		if (i.Flags&net.FlagUp) != 0 && len(i.HardwareAddr) > 0 {
			return int64(xxhash.Sum64(i.HardwareAddr) % 1024)
		}
	}

	return 1 // fallback
}
