package domain

import "errors"

var (
	// ErrPoemNotFound возвращается, когда стихотворение отсутствует.
	ErrPoemNotFound = errors.New("poem not found")
	// ErrChannelNotFound возвращается, когда канал отсутствует.
	ErrChannelNotFound = errors.New("channel not found")
)
