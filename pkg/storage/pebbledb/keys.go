package pebbledb

import (
	"fmt"
	"time"
)

func threadKey(threadID string) []byte {
	return []byte("thread:" + threadID)
}

func messageKey(threadID string, createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%020d-%s", threadID, createdAt.UTC().UnixNano(), id))
}

func messageIndexKey(id string) []byte {
	return []byte("msgid:" + id)
}

func messagePrefix(threadID string) []byte {
	return []byte("msg:" + threadID + ":")
}

func paymentKey(id string) []byte {
	return []byte("pay:" + id)
}

func riskKey(userID string, createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("risk:%s:%020d-%s", userID, createdAt.UTC().UnixNano(), id))
}

func riskPrefix(userID string) []byte {
	return []byte("risk:" + userID + ":")
}

func cursorKey(threadID string) []byte {
	return []byte("cursor:" + threadID)
}
