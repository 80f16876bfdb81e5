package event

import (
	"sync"
	"time"

	"github.com/damoang/angple-blog/pkg/logger"
)

// 토픽
const (
	TopicRedirectsChanged = "redirects.changed"
	TopicRevisionCreated  = "revision.created"
	TopicRevisionRestored = "revision.restored"
	TopicContentSaved     = "content.saved"
)

// Event 도메인 이벤트
type Event struct {
	Topic     string                 `json:"topic"`
	Source    string                 `json:"source"` // 발행 컴포넌트
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler 이벤트 핸들러 함수
type Handler func(event Event)

type subscription struct {
	name    string
	handler Handler
}

// Bus in-process 이벤트 발행/구독
type Bus struct {
	subscribers map[string][]subscription // topic -> handlers
	mu          sync.RWMutex
}

// NewBus 생성자
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]subscription)}
}

// Subscribe 토픽 구독
func (b *Bus) Subscribe(name, topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], subscription{name: name, handler: handler})
	logger.Debug("%s subscribed to topic: %s", name, topic)
}

// Unsubscribe 이름으로 등록된 모든 구독 해제
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subscribers {
		var remaining []subscription
		for _, s := range subs {
			if s.name != name {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(b.subscribers, topic)
		} else {
			b.subscribers[topic] = remaining
		}
	}
}

// Publish 이벤트 발행 (동기: 모든 핸들러 순차 실행).
// A nil bus is a no-op so services can run without one.
func (b *Bus) Publish(source, topic string, payload map[string]interface{}) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	ev := Event{
		Topic:     topic,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panicked [%s/%s -> %s]: %v", source, topic, s.name, r)
				}
			}()
			s.handler(ev)
		}()
	}
}

// Subscriptions 구독 현황 조회
func (b *Bus) Subscriptions() map[string][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string][]string)
	for topic, subs := range b.subscribers {
		for _, s := range subs {
			result[topic] = append(result[topic], s.name)
		}
	}
	return result
}
