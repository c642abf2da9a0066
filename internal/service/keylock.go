package service

import (
	"fmt"
	"sync"
)

// KeyedMutex 按 (学习者, 单元) 粒度的互斥锁。
// 同步与交付共用同一把锁，交付读到的 completed 一定是一致快照；
// 不同键之间完全并行。
type KeyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

func progressKey(userID uint, unitID string) string {
	return fmt.Sprintf("%d:%s", userID, unitID)
}

// Lock 返回解锁函数
func (m *KeyedMutex) Lock(userID uint, unitID string) func() {
	v, _ := m.locks.LoadOrStore(progressKey(userID, unitID), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
