package mempool

import (
	"sync"
)

// Sized pools for the scratch buffers used by the segmentation and feature stages.

var (
	float64Pools sync.Map // key: size class (int), value: *sync.Pool
	boolPools    sync.Map // key: size class (int), value: *sync.Pool
	int32Pools   sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to a multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func poolFor[T any](pools *sync.Map, cls int) *sync.Pool {
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return &sync.Pool{New: func() any { return make([]T, cls) }}
	}
	return p
}

// get returns a zeroed slice of length n drawn from pools.
func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	buf, ok := poolFor[T](pools, cls).Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	poolFor[T](pools, cls).Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetFloat64 retrieves a zeroed []float64 of length n. Return it with PutFloat64.
func GetFloat64(n int) []float64 { return get[float64](&float64Pools, n) }

// PutFloat64 returns a buffer to the pool. It is safe to pass a nil slice.
func PutFloat64(buf []float64) { put(&float64Pools, buf) }

// GetBool retrieves a zeroed []bool of length n. Return it with PutBool.
func GetBool(n int) []bool { return get[bool](&boolPools, n) }

// PutBool returns a buffer to the pool. It is safe to pass a nil slice.
func PutBool(buf []bool) { put(&boolPools, buf) }

// GetInt32 retrieves a zeroed []int32 of length n, used for component label maps.
func GetInt32(n int) []int32 { return get[int32](&int32Pools, n) }

// PutInt32 returns a buffer to the pool. It is safe to pass a nil slice.
func PutInt32(buf []int32) { put(&int32Pools, buf) }
