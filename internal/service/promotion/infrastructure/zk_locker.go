// internal/service/promotion/infrastructure/zk_locker.go
package infrastructure

import (
	"petshop/internal/pkg/zookeeper"
)

// ZkVoucherLocker 用 ZooKeeper 分布式锁把同一张券的核销串行化。
// usedCount 是跨实例共享的计数器，核销必须经过单写者通道。
type ZkVoucherLocker struct {
	conn *zookeeper.Conn
}

func NewZkVoucherLocker(conn *zookeeper.Conn) *ZkVoucherLocker {
	return &ZkVoucherLocker{conn: conn}
}

// Acquire 获取 voucher-{code} 的互斥锁，返回释放函数。
func (l *ZkVoucherLocker) Acquire(code string) (func(), error) {
	lock := zookeeper.NewDistributedLock(l.conn, "voucher-"+code)
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	return func() { _ = lock.Unlock() }, nil
}
