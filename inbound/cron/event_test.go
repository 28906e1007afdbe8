package cron

import (
	"club-registration/common/constant"
	"club-registration/common/vars"
	"club-registration/model"
	"club-registration/outbound/clubapi"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"net/http"
	"net/http/httptest"
	"testing"
)

type EventCronTestSuite struct {
	suite.Suite

	Cache     *redis.Client
	CacheMock redismock.ClientMock

	backend func(w http.ResponseWriter, r *http.Request)
	server  *httptest.Server

	cron EventCron
}

func (s *EventCronTestSuite) SetupTest() {
	rdb, mock := redismock.NewClientMock()
	s.Cache = rdb
	s.CacheMock = mock

	s.backend = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.backend(w, r)
	}))

	cfg := viper.New()
	cfg.Set("backend.base_url", s.server.URL)
	cfg.Set("backend.timeout", "2s")
	cfg.Set("cron.event.refresh.timeout", "2s")

	api, err := clubapi.NewClient(cfg)
	if err != nil {
		s.T().Fatalf("failed to create backend client: %v", err)
	}

	s.cron = EventCron{
		Cfg:   cfg,
		Cache: s.Cache,
		Api:   api,
	}
}

func (s *EventCronTestSuite) TearDownTest() {
	s.server.Close()
	vars.SetEvents(nil)

	if err := s.Cache.Close(); err != nil {
		s.T().Fatalf("failed to close redis mock: %v", err)
	}
}

func TestEventCronTestSuite(t *testing.T) {
	suite.Run(t, new(EventCronTestSuite))
}

func (s *EventCronTestSuite) TestRefresh() {
	s.Run("backend error leaves snapshot untouched", func() {
		vars.SetEvents([]model.EventFeeInfo{{Id: "OLD"}})

		s.backend = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}

		s.cron.refresh(context.Background())

		events := vars.GetEvents()
		s.Require().Len(events, 1)
		s.Equal("OLD", events[0].Id)
		s.NoError(s.CacheMock.ExpectationsWereMet())
	})

	s.Run("caches each event and swaps the snapshot", func() {
		s.backend = func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/api/events", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"events":[{"id":"EVT1","name":"Kalakriti","type":"cultural","fee":"250"},{"id":"EVT2","name":"Open Mic","type":"music","fee":"free"}]}`)
		}

		expected := []model.EventFeeInfo{
			{Id: "EVT1", Name: "Kalakriti", Type: "cultural", Fee: 250},
			{Id: "EVT2", Name: "Open Mic", Type: "music", Fee: 0},
		}

		for _, event := range expected {
			raw, err := json.Marshal(event)
			s.Require().NoError(err)
			s.CacheMock.ExpectSet(fmt.Sprintf(constant.EachEventKey, event.Id), string(raw), constant.EventCacheDefaultTTL).SetVal("OK")
		}

		s.cron.refresh(context.Background())

		events := vars.GetEvents()
		s.Require().Len(events, 2)
		s.Equal(int64(250), events[0].Fee)
		s.Equal(int64(0), events[1].Fee)
		s.NoError(s.CacheMock.ExpectationsWereMet())
	})
}
