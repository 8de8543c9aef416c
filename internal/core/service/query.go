package service

import (
	"context"
	"slices"
	"strings"

	"github.com/Wyydra/yacall/internal/core/domain"
)

// read runs fn under the call lock without producing effects.
func (s *CallService) read(ctx context.Context, id domain.CallID, fn func(*domain.Call) error) error {
	unlock := s.lock(id)
	defer unlock()
	call, err := s.calls.Get(ctx, id)
	if err != nil {
		s.forget(id, err)
		return err
	}
	return fn(call)
}

func (s *CallService) Call(ctx context.Context, id domain.CallID) (domain.CallProperties, error) {
	var props domain.CallProperties
	err := s.read(ctx, id, func(c *domain.Call) error {
		props = c.Properties()
		return nil
	})
	return props, err
}

// Calls lists the live calls ordered by id.
func (s *CallService) Calls(ctx context.Context) ([]domain.CallProperties, error) {
	calls, err := s.calls.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.CallID, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	slices.SortFunc(ids, func(a, b domain.CallID) int { return strings.Compare(a.String(), b.String()) })

	out := make([]domain.CallProperties, 0, len(ids))
	for _, id := range ids {
		props, err := s.Call(ctx, id)
		if err != nil {
			// released meanwhile
			continue
		}
		out = append(out, props)
	}
	return out, nil
}

func (s *CallService) Content(ctx context.Context, id domain.CallID, content domain.ContentID) (domain.ContentProperties, error) {
	var props domain.ContentProperties
	err := s.read(ctx, id, func(c *domain.Call) (err error) {
		props, err = c.Content(content)
		return err
	})
	return props, err
}

func (s *CallService) Stream(ctx context.Context, id domain.CallID, stream domain.StreamID) (domain.StreamProperties, error) {
	var props domain.StreamProperties
	err := s.read(ctx, id, func(c *domain.Call) (err error) {
		props, err = c.Stream(stream)
		return err
	})
	return props, err
}

func (s *CallService) Endpoint(ctx context.Context, id domain.CallID, endpoint domain.EndpointID) (domain.EndpointProperties, error) {
	var props domain.EndpointProperties
	err := s.read(ctx, id, func(c *domain.Call) (err error) {
		props, err = c.Endpoint(endpoint)
		return err
	})
	return props, err
}
