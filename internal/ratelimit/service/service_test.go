package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grantgate/internal/platform/config"
	"grantgate/internal/ratelimit/store/counter"
	"grantgate/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	base time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) newService(max int, failOpen bool) *Service {
	svc, err := New(counter.NewMemoryStore(), WithConfig(config.RateLimitConfig{
		Window:      time.Minute,
		MaxRequests: max,
		FailOpen:    failOpen,
	}))
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) at(d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.base.Add(d))
}

func (s *ServiceSuite) TestAllow() {
	s.Run("allows up to the limit then denies", func() {
		svc := s.newService(5, true)

		for i := range 5 {
			result, err := svc.Allow(s.at(0), "ip-1:/grants")
			s.Require().NoError(err)
			s.True(result.Allowed, "request %d should pass", i+1)
			s.Equal(5-(i+1), result.Remaining)
		}

		result, err := svc.Allow(s.at(0), "ip-1:/grants")
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(time.Minute, result.RetryAfter)
	})

	s.Run("window rollover resets the budget", func() {
		svc := s.newService(2, true)

		for _, offset := range []time.Duration{0, time.Second} {
			result, err := svc.Allow(s.at(offset), "ip-1:/grants")
			s.Require().NoError(err)
			s.True(result.Allowed)
		}
		result, err := svc.Allow(s.at(2*time.Second), "ip-1:/grants")
		s.Require().NoError(err)
		s.False(result.Allowed)

		result, err = svc.Allow(s.at(61*time.Second), "ip-1:/grants")
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("rejections carry the full window as retry hint", func() {
		svc := s.newService(1, true)

		_, err := svc.Allow(s.at(0), "ip-1:/grants")
		s.Require().NoError(err)

		result, err := svc.Allow(s.at(40*time.Second), "ip-1:/grants")
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(time.Minute, result.RetryAfter)
	})

	s.Run("fail open allows on store error", func() {
		svc, err := New(&failingCounterStore{}, WithConfig(config.RateLimitConfig{
			Window:      time.Minute,
			MaxRequests: 5,
			FailOpen:    true,
		}))
		s.Require().NoError(err)

		result, err := svc.Allow(context.Background(), "ip-1:/grants")
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("fail closed denies on store error", func() {
		svc, err := New(&failingCounterStore{}, WithConfig(config.RateLimitConfig{
			Window:      time.Minute,
			MaxRequests: 5,
			FailOpen:    false,
		}))
		s.Require().NoError(err)

		result, err := svc.Allow(context.Background(), "ip-1:/grants")
		s.Require().Error(err)
		s.False(result.Allowed)
	})
}

type failingCounterStore struct{}

func (f *failingCounterStore) Incr(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("redis gone")
}
