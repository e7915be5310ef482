package mq

import "errors"

// Ошибки MQ.
var (
	// ErrNoChannel — канал ещё не открыт или соединение переподключается.
	ErrNoChannel = errors.New("no channel available")

	// ErrConnectionClosed — соединение закрыто через Close.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrUnexpectedMessage — тип сообщения не совпадает с ожидаемым.
	ErrUnexpectedMessage = errors.New("unexpected message type")
)
