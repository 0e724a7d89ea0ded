// Package idgen issues transaction ids from a snowflake node.
package idgen

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// TransactionPrefix starts every transaction id.
const TransactionPrefix = "TXN-"

// Generator hands out time ordered ids unique per node.
type Generator struct {
	node *snowflake.Node
}

// New creates a generator for nodeID (0-1023). Every running instance needs
// its own node id.
func New(nodeID int64) (*Generator, error) {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("idgen: init node %d: %w", nodeID, err)
	}
	return &Generator{node: n}, nil
}

// NewTransactionID returns TXN- followed by the base36 id in upper case.
func (g *Generator) NewTransactionID() string {
	return TransactionPrefix + strings.ToUpper(g.node.Generate().Base36())
}
