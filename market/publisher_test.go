package market

import (
	"testing"
	"time"
)

func TestPublisherBroadcast(t *testing.T) {
	p := NewPublisher()
	ticks := p.SubscribeTicks()
	bars := p.SubscribeBars()

	p.PublishTick(tick("2327", time.Now(), "100", "1"))
	p.PublishBar(Bar{Symbol: "2327", Close: dec("100")})

	select {
	case got := <-ticks:
		if got.Symbol != "2327" {
			t.Fatalf("unexpected tick %v", got)
		}
	default:
		t.Fatalf("tick not delivered")
	}
	select {
	case got := <-bars:
		if got.Symbol != "2327" {
			t.Fatalf("unexpected bar %v", got)
		}
	default:
		t.Fatalf("bar not delivered")
	}
}

func TestPublisherDropsWhenSubscriberFull(t *testing.T) {
	p := NewPublisher()
	_ = p.SubscribeTicks()

	// 订阅者不取走消息，发布方也绝不能被阻塞
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*2; i++ {
			p.PublishTick(tick("2327", time.Now(), "100", "1"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publisher blocked on slow subscriber")
	}
}
