package util

import "errors"

var (
	ErrInvalidPageID       = errors.New("invalid page id")
	ErrInvalidInitialPages = errors.New("initial pages must be positive")
	ErrPageOutOfBounds     = errors.New("page out of bounds")
	ErrFileManagerNil      = errors.New("file manager is nil")
	ErrInvalidPoolSize     = errors.New("invalid pool size")
	ErrInvalidInstanceIdx  = errors.New("instance index out of range")
	ErrOutOfBoundFrame     = errors.New("frame index out of bound")
	ErrNoFreeFrame         = errors.New("no free frames")
)
