// Package schedule plans batches of social posts and tracks their publish
// state. Plans come from the model as structured JSON; everything after
// that is local bookkeeping.
package schedule

import (
	"fmt"
	"sync"
	"time"
)

// Status is a post's publish state.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusPosted  Status = "posted"
	StatusSkipped Status = "skipped"
)

// Post is one planned social post. ID is assigned by the plan and is
// composed of the platform and the post's per-platform index, so reordering
// posts on one platform never renumbers another's.
type Post struct {
	ID           string
	Platform     string
	Title        string
	Body         string
	Hashtags     []string
	ScheduledFor time.Time
	Status       Status
}

// Plan is a mutable batch of planned posts.
type Plan struct {
	mu    sync.RWMutex
	topic string
	posts []Post
}

// NewPlan assigns IDs and wraps posts into a plan. Posts without a status
// start as planned.
func NewPlan(topic string, posts []Post) *Plan {
	counters := make(map[string]int)
	for i := range posts {
		idx := counters[posts[i].Platform]
		counters[posts[i].Platform] = idx + 1
		posts[i].ID = fmt.Sprintf("%s-%d", posts[i].Platform, idx)
		if posts[i].Status == "" {
			posts[i].Status = StatusPlanned
		}
	}
	return &Plan{topic: topic, posts: posts}
}

// Topic returns what the plan is about.
func (p *Plan) Topic() string {
	return p.topic
}

// Posts returns a copy of the plan in schedule order.
func (p *Plan) Posts() []Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Post, len(p.posts))
	copy(out, p.posts)
	return out
}

// Len reports the number of posts in the plan.
func (p *Plan) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.posts)
}

// SetTime reschedules the post with the given ID. An unknown ID is a no-op
// and reports false; it must never shift the timing of a different post.
func (p *Plan) SetTime(id string, t time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.posts {
		if p.posts[i].ID == id {
			p.posts[i].ScheduledFor = t
			return true
		}
	}
	return false
}

// SetStatus updates the publish state of the post with the given ID. An
// unknown ID is a no-op and reports false.
func (p *Plan) SetStatus(id string, status Status) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.posts {
		if p.posts[i].ID == id {
			p.posts[i].Status = status
			return true
		}
	}
	return false
}

// Due returns the planned posts whose scheduled time has passed.
func (p *Plan) Due(now time.Time) []Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var due []Post
	for _, post := range p.posts {
		if post.Status == StatusPlanned && !post.ScheduledFor.After(now) {
			due = append(due, post)
		}
	}
	return due
}
