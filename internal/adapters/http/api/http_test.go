package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/kickoff/internal/adapters/http/api"
	service "github.com/okian/kickoff/internal/app"
	"github.com/okian/kickoff/internal/adapters/repository"
	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/notify"
	"github.com/okian/kickoff/internal/domain/types"
	"github.com/okian/kickoff/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubDeps fails every call with err.
type stubDeps struct {
	err error
}

func (s stubDeps) Balance(context.Context, types.BalanceInput) (balance.PartitionResult, error) {
	return balance.PartitionResult{}, s.err
}

func (s stubDeps) CreateMatch(context.Context, types.MatchInput) (*model.Match, error) {
	return nil, s.err
}

func (s stubDeps) GetMatch(context.Context, string) (*model.Match, error) {
	return nil, s.err
}

func (s stubDeps) UpdateRoster(context.Context, string, []model.RosterEntry) (*model.Match, error) {
	return nil, s.err
}

func (s stubDeps) SetLocks(context.Context, string, map[string]balance.Side) (*model.Match, error) {
	return nil, s.err
}

func (s stubDeps) BalanceMatch(context.Context, string, *bool) (*model.Match, error) {
	return nil, s.err
}

func (s stubDeps) FinalizeMatch(context.Context, string) (*model.Match, error) {
	return nil, s.err
}

type stubStats map[string]any

func (s stubStats) GetStats(context.Context) map[string]any { return s }

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		return ""
	}
	return body.Code
}

func TestBalanceEndpoint(t *testing.T) {
	Convey("Given the API over a service", t, func() {
		svc := service.New(service.WithPreferRandomTies(false), service.WithMaxRosterSize(10))
		mux := newMux(svc, svc)

		Convey("When posting a roster", func() {
			w := do(mux, http.MethodPost, "/balance",
				`{"players":[{"id":"a","score":9},{"id":"b","score":"1"},{"name":"Cee","score":5},{"id":"d","score":5}],
				  "locks":{"a":"a"},"team_a_name":"Reds"}`)

			Convey("Then the balanced teams come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res balance.PartitionResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Diff, ShouldEqual, 0)
				So(res.Teams[0].Name, ShouldEqual, "Reds")
				So(res.Teams[0].Players, ShouldContain, "a")
				So(res.Teams[0].Players, ShouldContain, "b")
				So(res.Teams[1].Players, ShouldContain, "cee")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/balance", `{"players":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})

		Convey("When a lock side is unknown", func() {
			w := do(mux, http.MethodPost, "/balance", `{"players":[{"id":"a","score":1},{"id":"b","score":2}],"locks":{"a":"C"}}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the roster is odd", func() {
			w := do(mux, http.MethodPost, "/balance", `{"players":[{"id":"a","score":1},{"id":"b","score":2},{"id":"c","score":3}]}`)

			Convey("Then it is unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(errorCode(w), ShouldEqual, "invalid_roster")
			})
		})

		Convey("When one side is overlocked", func() {
			w := do(mux, http.MethodPost, "/balance",
				`{"players":[{"id":"a","score":1},{"id":"b","score":2},{"id":"c","score":3},{"id":"d","score":4}],
				  "locks":{"a":"A","b":"A","c":"A"}}`)

			Convey("Then it is unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the roster is above the configured limit", func() {
			var players []string
			for i := 0; i < 12; i++ {
				players = append(players, fmt.Sprintf(`{"id":"p%d","score":%d}`, i, i))
			}
			w := do(mux, http.MethodPost, "/balance", `{"players":[`+strings.Join(players, ",")+`]}`)

			Convey("Then it is unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/balance", "")

			Convey("Then the mux refuses it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestMatchEndpoints(t *testing.T) {
	Convey("Given the API over a started service", t, func() {
		rec := notify.NewRecorder()
		svc := service.New(
			service.WithNotifier(rec),
			service.WithWorkerCount(1),
			service.WithPreferRandomTies(false),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		Reset(func() {
			_ = svc.Stop(context.Background())
		})
		mux := newMux(svc, svc)

		w := do(mux, http.MethodPost, "/matches",
			`{"name":"Sunday","players":[{"id":"a","score":8},{"id":"b","score":2},{"id":"c","score":5},{"id":"d","score":5}],"locks":{"a":"B"}}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		var created types.MatchView
		So(json.Unmarshal(w.Body.Bytes(), &created), ShouldBeNil)
		So(w.Header().Get("Location"), ShouldEqual, "/matches/"+created.ID)

		Convey("When the match is fetched", func() {
			w := do(mux, http.MethodGet, "/matches/"+created.ID, "")

			Convey("Then the view lists the players with their locks", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var view types.MatchView
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				So(view.Name, ShouldEqual, "Sunday")
				So(view.Revision, ShouldEqual, 1)
				So(len(view.Players), ShouldEqual, 4)
				So(view.Players[0].Key, ShouldEqual, "a")
				So(view.Players[0].Locked, ShouldEqual, "B")
			})
		})

		Convey("When an unknown match is fetched", func() {
			w := do(mux, http.MethodGet, "/matches/unknown", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "not_found")
			})
		})

		Convey("When the match is balanced without a body", func() {
			w := do(mux, http.MethodPost, "/matches/"+created.ID+"/balance", "")

			Convey("Then every player has a side", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var view types.MatchView
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				So(view.Partition, ShouldNotBeNil)
				So(view.Partition.Diff, ShouldEqual, 0)
				for _, p := range view.Players {
					So(p.Side, ShouldNotBeBlank)
				}
				So(view.Players[0].Side, ShouldEqual, "B")
			})

			Convey("And then finalized", func() {
				w := do(mux, http.MethodPost, "/matches/"+created.ID+"/finalize", "")
				So(w.Code, ShouldEqual, http.StatusAccepted)

				Convey("Then players are notified and edits conflict", func() {
					deadline := time.Now().Add(2 * time.Second)
					for len(rec.Sent()) < 4 && time.Now().Before(deadline) {
						time.Sleep(5 * time.Millisecond)
					}
					So(len(rec.Sent()), ShouldEqual, 4)

					w := do(mux, http.MethodPut, "/matches/"+created.ID+"/roster", `{"players":[{"id":"a","score":1},{"id":"b","score":1}]}`)
					So(w.Code, ShouldEqual, http.StatusConflict)
					So(errorCode(w), ShouldEqual, "conflict")
				})
			})
		})

		Convey("When finalizing an unbalanced match", func() {
			w := do(mux, http.MethodPost, "/matches/"+created.ID+"/finalize", "")

			Convey("Then it conflicts", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When the roster is replaced", func() {
			w := do(mux, http.MethodPut, "/matches/"+created.ID+"/roster", `{"players":[{"id":"b","score":1},{"id":"c","score":1}]}`)

			Convey("Then the lock on the dropped player goes away", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var view types.MatchView
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				So(view.Revision, ShouldEqual, 2)
				So(len(view.Players), ShouldEqual, 2)
				for _, p := range view.Players {
					So(p.Locked, ShouldBeBlank)
				}
			})
		})

		Convey("When the locks are replaced", func() {
			w := do(mux, http.MethodPut, "/matches/"+created.ID+"/locks", `{"locks":{"c":"a"}}`)

			Convey("Then the new locks show in the view", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var view types.MatchView
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				So(view.Players[0].Locked, ShouldBeBlank)
				So(view.Players[2].Locked, ShouldEqual, "A")
			})
		})

		Convey("When the balance body is malformed", func() {
			w := do(mux, http.MethodPost, "/matches/"+created.ID+"/balance", `{"prefer_random_ties":"yes"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given handlers whose dependency fails", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("x: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
			{fmt.Errorf("x: %w", model.ErrMatchFinalized), http.StatusConflict, "conflict"},
			{fmt.Errorf("x: %w", repository.ErrConflict), http.StatusConflict, "conflict"},
			{fmt.Errorf("x: %w", service.ErrBackpressure), http.StatusTooManyRequests, "backpressure"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{fmt.Errorf("x: %w", balance.ErrSearchTooLarge), http.StatusUnprocessableEntity, "invalid_roster"},
			{balance.ErrBackpointerReconstruction, http.StatusInternalServerError, "internal_error"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}

		for _, tc := range cases {
			mux := newMux(stubDeps{err: tc.err}, stubStats{})

			Convey(fmt.Sprintf("When the error is %q", tc.err), func() {
				w := do(mux, http.MethodPost, "/matches/m1/finalize", "")

				Convey("Then it maps to its status", func() {
					So(w.Code, ShouldEqual, tc.status)
					So(errorCode(w), ShouldEqual, tc.code)
					So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				})
			})
		}
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API with a stats provider", t, func() {
		mux := newMux(stubDeps{}, stubStats{"started": true, "matches": 3})

		Convey("When requesting stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the provider's numbers are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
				So(stats["matches"], ShouldEqual, 3)
			})
		})

		Convey("When requesting health after some traffic", func() {
			do(mux, http.MethodGet, "/stats", "")
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "kickoff_http_requests_total")
			})
		})
	})
}

func TestWrap(t *testing.T) {
	Convey("Given an operation error", t, func() {
		cause := errors.New("disk full")

		Convey("Then Wrap keeps the cause", func() {
			err := api.Wrap("api.op", cause)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: disk full")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})

		Convey("Then WrapKind keeps both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrConflict, cause)
			So(errors.Is(err, api.ErrConflict), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(api.WrapKind("api.op", api.ErrConflict, nil), api.ErrConflict), ShouldBeTrue)
		})
	})
}
