package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/chrissyx/zay-linkauth/loginlink"
)

var _ loginlink.Repo = (*FakeLinkRepo)(nil)

// FakeLinkRepo is an in-memory loginlink.Repo for tests.
type FakeLinkRepo struct {
	links map[string]*loginlink.LoginLink
	lock  sync.RWMutex
}

func NewFakeLinkRepo() *FakeLinkRepo {
	return &FakeLinkRepo{links: make(map[string]*loginlink.LoginLink)}
}

func (r *FakeLinkRepo) Create(_ context.Context, link *loginlink.LoginLink) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored := *link
	r.links[link.LinkKey] = &stored
	return nil
}

func (r *FakeLinkRepo) Get(_ context.Context, linkKey string) (*loginlink.LoginLink, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	link, ok := r.links[linkKey]
	if !ok {
		return nil, loginlink.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *FakeLinkRepo) MarkUsed(_ context.Context, linkKey string, usedAt time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	link, ok := r.links[linkKey]
	if !ok {
		return loginlink.ErrLinkNotFound
	}
	if link.IsUsed {
		return loginlink.ErrLinkAlreadyUsed
	}
	link.IsUsed = true
	link.UsedAt = usedAt
	return nil
}

func (r *FakeLinkRepo) Delete(_ context.Context, linkKey string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.links, linkKey)
	return nil
}

// Len reports the number of stored links.
func (r *FakeLinkRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.links)
}
