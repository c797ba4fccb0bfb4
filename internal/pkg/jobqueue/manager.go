package jobqueue

import "sync"

var (
	globalQueue *Queue
	globalOnce  sync.Once
)

// GetQueue returns the process-wide queue, creating it on first use.
func GetQueue() *Queue {
	globalOnce.Do(func() {
		globalQueue = NewQueue(3)
	})
	return globalQueue
}

// EnqueueStatsSync queues an engagement sync for one account.
func EnqueueStatsSync(accountID string) error {
	_, err := GetQueue().Enqueue(JobTypeSyncStats, map[string]string{"account_id": accountID})
	return err
}

// EnqueueAvatarMirror queues an avatar mirror for one account.
func EnqueueAvatarMirror(accountID string) error {
	_, err := GetQueue().Enqueue(JobTypeMirrorAvatar, map[string]string{"account_id": accountID})
	return err
}
