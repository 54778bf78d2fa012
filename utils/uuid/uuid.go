package uuid

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// GenUUID 去掉横线的 32 位 uuid
func GenUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenUUID16 16 位请求 id
func GenUUID16() string {
	return GenUUID()[:16]
}

// SnowNode 雪花算法 id 生成器
type SnowNode struct {
	node *snowflake.Node
}

// NewNode 节点编号范围 0~1023，越界时 panic
func NewNode(n int64) *SnowNode {
	node, err := snowflake.NewNode(n)
	if err != nil {
		panic(err)
	}
	return &SnowNode{node: node}
}

func (s *SnowNode) GenSnowID() int64 {
	return s.node.Generate().Int64()
}

func (s *SnowNode) GenSnowStr() string {
	return s.node.Generate().String()
}
