// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 是对 zk.Conn 的一层薄封装，方便统一建连参数和后续替换。
type Conn struct {
	*zk.Conn
}

// Connect 连接 ZooKeeper 集群，addrs 形如 ["host1:2181", "host2:2181"]。
func Connect(addrs []string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(addrs, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}
