package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tribelens/tribe/internal/adapters/http/api"
	"github.com/tribelens/tribe/internal/adapters/jobs/queue"
	service "github.com/tribelens/tribe/internal/app"
	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/pkg/logger"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// Mock implementations for testing
type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// sampleSnapshot builds a small published dataset with known aggregates.
func sampleSnapshot() *model.Snapshot {
	snap := &model.Snapshot{
		Version:        3,
		Source:         model.SourceRemote,
		GeneratedAt:    time.Now().UTC(),
		SelectedUserID: "user_1",
		Users: []model.User{
			{
				UserID: "user_1", Username: "aria_tech", Age: 29, Gender: "Female",
				City: "London", Interests: []string{"tech", "music"},
				Followers: 1000, Following: 300, Posts: 120,
				Likes: 100, Comments: 15, Shares: 5,
				EngagementRate: 2.0, InfluenceScore: 0.41,
				Segment: "Tech Enthusiasts", SegmentColor: "#6366f1",
			},
			{
				UserID: "user_2", Username: "bela_travel", Age: 34, Gender: "Male",
				City: "Paris", Interests: []string{"tech", "travel"},
				Followers: 2000, Following: 150, Posts: 80,
				Likes: 200, Comments: 30, Shares: 10,
				EngagementRate: 4.0, InfluenceScore: 0.55,
				Segment: "Rising Stars", SegmentColor: "#22c55e", SegmentID: 1,
			},
			{
				UserID: "user_3", Username: "cato_games", Age: 25, Gender: "Female",
				City: "London", Interests: []string{"gaming"},
				Followers: 3000, Following: 500, Posts: 200,
				Likes: 300, Comments: 45, Shares: 15,
				EngagementRate: 6.0, InfluenceScore: 0.69,
				Segment: "Tech Enthusiasts", SegmentColor: "#6366f1",
			},
		},
		Recommendations: []model.Recommendation{
			{
				UserID: "user_2", Username: "bela_travel", Similarity: 0.82,
				Segment: "Rising Stars", SegmentColor: "#22c55e",
				Followers: 2000, Interests: []string{"tech", "travel"},
				Reason: "Shared interest: tech",
			},
			{
				UserID: "user_3", Username: "cato_games", Similarity: 0.47,
				Segment: "Tech Enthusiasts", SegmentColor: "#6366f1",
				Followers: 3000, Interests: []string{"gaming"},
				Reason: "Same city: London",
			},
		},
		Segments: []model.SegmentStat{
			{Name: "Tech Enthusiasts", Color: "#6366f1", Count: 2, Percentage: 66.7, AvgEngagement: 4.0, AvgFollowers: 2000, AvgInfluence: 0.55},
			{Name: "Rising Stars", Color: "#22c55e", Count: 1, Percentage: 33.3, AvgEngagement: 4.0, AvgFollowers: 2000, AvgInfluence: 0.55},
		},
		Cities: []model.CityCount{
			{City: "London", Count: 2, Lat: 51.5074, Lng: -0.1278},
			{City: "Paris", Count: 1, Lat: 48.8566, Lng: 2.3522},
		},
	}
	for hour := 0; hour < 24; hour++ {
		snap.Hourly = append(snap.Hourly, model.HourlyPoint{Hour: hour, Engagement: float64(hour) * 1.5})
	}
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		snap.Weekly = append(snap.Weekly, model.WeeklyPoint{Day: day, Engagement: 50, Followers: 6000})
	}
	return snap
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		deps := newMockOrchestrator(sampleSnapshot())
		statsProvider := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
		server := api.NewServer(deps, statsProvider, 100)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(ctx, mux)

			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And overview endpoint should serve the snapshot", func() {
				req := httptest.NewRequest("GET", "/api/overview", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var snap model.Snapshot
				err := json.NewDecoder(w.Body).Decode(&snap)
				So(err, ShouldBeNil)
				So(snap.Version, ShouldEqual, 3)
				So(len(snap.Users), ShouldEqual, 3)
			})

			Convey("And users endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/api/users", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And aggregate endpoints should be accessible", func() {
				for _, path := range []string{"/api/segments", "/api/cities", "/api/engagement/hourly", "/api/trends/weekly", "/api/summary"} {
					req := httptest.NewRequest("GET", path, nil)
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)
					So(w.Code, ShouldEqual, http.StatusOK)
				}
			})

			Convey("And selection endpoint should reject an empty body", func() {
				req := httptest.NewRequest("POST", "/api/selection", strings.NewReader(`{}`))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And refresh endpoint should accept a request", func() {
				req := httptest.NewRequest("POST", "/api/refresh", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)
			})

			Convey("And unknown paths should return not found", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And dashboard endpoint should serve HTML with refresh control", func() {
				req := httptest.NewRequest("GET", "/dashboard", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, "id=\"refresh-interval\"")
				So(body, ShouldContainSubstring, "id=\"refresh-control\"")
			})
		})
	})
}

func TestOverviewHandler_HandleOverview(t *testing.T) {
	Convey("Given an overview handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewOverviewHandler(deps)

		Convey("When requesting the overview", func() {
			req := httptest.NewRequest("GET", "/api/overview", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the full snapshot", func() {
				handler.HandleOverview(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var snap model.Snapshot
				err := json.NewDecoder(w.Body).Decode(&snap)
				So(err, ShouldBeNil)
				So(snap.Version, ShouldEqual, 3)
				So(snap.Source, ShouldEqual, model.SourceRemote)
				So(snap.SelectedUserID, ShouldEqual, "user_1")
				So(len(snap.Recommendations), ShouldEqual, 2)
				So(len(snap.Hourly), ShouldEqual, 24)
				So(len(snap.Weekly), ShouldEqual, 7)
			})
		})

		Convey("When using a non-GET method", func() {
			req := httptest.NewRequest("POST", "/api/overview", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleOverview(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestUsersHandler_HandleGetUsers(t *testing.T) {
	Convey("Given a users handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewUsersHandler(deps, 100)

		Convey("When requesting without parameters", func() {
			req := httptest.NewRequest("GET", "/api/users", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the full population", func() {
				handler.HandleGetUsers(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var users []model.User
				err := json.NewDecoder(w.Body).Decode(&users)
				So(err, ShouldBeNil)
				So(len(users), ShouldEqual, 3)
				So(users[0].UserID, ShouldEqual, "user_1")
			})
		})

		Convey("When requesting with a limit", func() {
			req := httptest.NewRequest("GET", "/api/users?limit=2", nil)
			w := httptest.NewRecorder()

			Convey("Then it should truncate the list", func() {
				handler.HandleGetUsers(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var users []model.User
				err := json.NewDecoder(w.Body).Decode(&users)
				So(err, ShouldBeNil)
				So(len(users), ShouldEqual, 2)
			})
		})

		Convey("When requesting with a segment filter", func() {
			req := httptest.NewRequest("GET", "/api/users?segment=Tech+Enthusiasts", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return only matching users", func() {
				handler.HandleGetUsers(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var users []model.User
				err := json.NewDecoder(w.Body).Decode(&users)
				So(err, ShouldBeNil)
				So(len(users), ShouldEqual, 2)
				So(users[0].UserID, ShouldEqual, "user_1")
				So(users[1].UserID, ShouldEqual, "user_3")
			})
		})

		Convey("When combining segment filter and limit", func() {
			req := httptest.NewRequest("GET", "/api/users?segment=Tech+Enthusiasts&limit=1", nil)
			w := httptest.NewRecorder()

			handler.HandleGetUsers(w, req)

			Convey("Then the limit should apply after the filter", func() {
				var users []model.User
				err := json.NewDecoder(w.Body).Decode(&users)
				So(err, ShouldBeNil)
				So(len(users), ShouldEqual, 1)
				So(users[0].UserID, ShouldEqual, "user_1")
			})
		})

		Convey("When the limit is not a number", func() {
			req := httptest.NewRequest("GET", "/api/users?limit=abc", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleGetUsers(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			req := httptest.NewRequest("GET", "/api/users?limit=101", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the limit_exceeded code", func() {
				handler.HandleGetUsers(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When using a non-GET method", func() {
			req := httptest.NewRequest("POST", "/api/users", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleGetUsers(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestUserHandler_HandleGetUser(t *testing.T) {
	Convey("Given a user handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewUserHandler(deps)

		Convey("When requesting an existing user", func() {
			req := httptest.NewRequest("GET", "/api/users/user_2", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the user record", func() {
				handler.HandleGetUser(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var user model.User
				err := json.NewDecoder(w.Body).Decode(&user)
				So(err, ShouldBeNil)
				So(user.Username, ShouldEqual, "bela_travel")
				So(user.City, ShouldEqual, "Paris")
			})
		})

		Convey("When requesting an unknown user", func() {
			req := httptest.NewRequest("GET", "/api/users/nope", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found with the code", func() {
				handler.HandleGetUser(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the path has no id", func() {
			req := httptest.NewRequest("GET", "/api/users/", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleGetUser(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the path has extra segments", func() {
			req := httptest.NewRequest("GET", "/api/users/user_2/extra", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleGetUser(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRecommendationsHandler_HandleGetRecommendations(t *testing.T) {
	Convey("Given a recommendations handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewRecommendationsHandler(deps)

		Convey("When requesting recommendations for a user", func() {
			req := httptest.NewRequest("GET", "/api/recommendations/user_1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the scored list", func() {
				handler.HandleGetRecommendations(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var recs []model.Recommendation
				err := json.NewDecoder(w.Body).Decode(&recs)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 2)
				So(recs[0].UserID, ShouldEqual, "user_2")
				So(recs[0].Similarity, ShouldAlmostEqual, 0.82)
			})
		})

		Convey("When requesting with an explicit count", func() {
			req := httptest.NewRequest("GET", "/api/recommendations/user_1?n=1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should truncate the list", func() {
				handler.HandleGetRecommendations(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var recs []model.Recommendation
				err := json.NewDecoder(w.Body).Decode(&recs)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
			})
		})

		Convey("When the count is invalid", func() {
			for _, target := range []string{"/api/recommendations/user_1?n=abc", "/api/recommendations/user_1?n=0"} {
				req := httptest.NewRequest("GET", target, nil)
				w := httptest.NewRecorder()
				handler.HandleGetRecommendations(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the user is unknown", func() {
			req := httptest.NewRequest("GET", "/api/recommendations/nope", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleGetRecommendations(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the orchestrator fails", func() {
			deps.recsErr = fmt.Errorf("scoring failed")
			req := httptest.NewRequest("GET", "/api/recommendations/user_1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return internal server error", func() {
				handler.HandleGetRecommendations(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the path has no id", func() {
			req := httptest.NewRequest("GET", "/api/recommendations/", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleGetRecommendations(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAggregatesHandler(t *testing.T) {
	Convey("Given an aggregates handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewAggregatesHandler(deps)

		Convey("When requesting segments", func() {
			req := httptest.NewRequest("GET", "/api/segments", nil)
			w := httptest.NewRecorder()
			handler.HandleSegments(w, req)

			Convey("Then it should return the segment stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var segments []model.SegmentStat
				err := json.NewDecoder(w.Body).Decode(&segments)
				So(err, ShouldBeNil)
				So(len(segments), ShouldEqual, 2)
				So(segments[0].Name, ShouldEqual, "Tech Enthusiasts")
			})
		})

		Convey("When requesting cities", func() {
			req := httptest.NewRequest("GET", "/api/cities", nil)
			w := httptest.NewRecorder()
			handler.HandleCities(w, req)

			Convey("Then it should return the city distribution", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var cities []model.CityCount
				err := json.NewDecoder(w.Body).Decode(&cities)
				So(err, ShouldBeNil)
				So(len(cities), ShouldEqual, 2)
				So(cities[0].City, ShouldEqual, "London")
				So(cities[0].Count, ShouldEqual, 2)
			})
		})

		Convey("When requesting the hourly curve", func() {
			req := httptest.NewRequest("GET", "/api/engagement/hourly", nil)
			w := httptest.NewRecorder()
			handler.HandleHourly(w, req)

			Convey("Then it should return 24 points", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var hourly []model.HourlyPoint
				err := json.NewDecoder(w.Body).Decode(&hourly)
				So(err, ShouldBeNil)
				So(len(hourly), ShouldEqual, 24)
			})
		})

		Convey("When requesting the weekly trend", func() {
			req := httptest.NewRequest("GET", "/api/trends/weekly", nil)
			w := httptest.NewRecorder()
			handler.HandleWeekly(w, req)

			Convey("Then it should return 7 days", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var weekly []model.WeeklyPoint
				err := json.NewDecoder(w.Body).Decode(&weekly)
				So(err, ShouldBeNil)
				So(len(weekly), ShouldEqual, 7)
				So(weekly[0].Day, ShouldEqual, "Mon")
			})
		})

		Convey("When using a non-GET method", func() {
			req := httptest.NewRequest("POST", "/api/segments", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleSegments(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSummaryHandler_HandleSummary(t *testing.T) {
	Convey("Given a summary handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewSummaryHandler(deps)

		Convey("When requesting the summary", func() {
			req := httptest.NewRequest("GET", "/api/summary", nil)
			w := httptest.NewRecorder()

			Convey("Then it should compute population totals", func() {
				handler.HandleSummary(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response summaryResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.TotalUsers, ShouldEqual, 3)
				So(response.TotalSegments, ShouldEqual, 2)
				So(response.AvgFollowers, ShouldEqual, 2000)
				So(response.AvgEngagement, ShouldAlmostEqual, 4.0)
				So(response.DistinctInterests, ShouldEqual, 4)
				So(response.TopCity, ShouldEqual, "London")
				So(response.Source, ShouldEqual, "remote")
				So(response.Version, ShouldEqual, 3)
			})
		})

		Convey("When the snapshot is empty", func() {
			deps.setSnapshot(model.EmptySnapshot())
			req := httptest.NewRequest("GET", "/api/summary", nil)
			w := httptest.NewRecorder()

			Convey("Then totals should be zero", func() {
				handler.HandleSummary(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response summaryResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.TotalUsers, ShouldEqual, 0)
				So(response.AvgFollowers, ShouldEqual, 0)
				So(response.TopCity, ShouldEqual, "")
			})
		})
	})
}

func TestSelectionHandler_HandlePostSelection(t *testing.T) {
	Convey("Given a selection handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewSelectionHandler(deps)

		Convey("When posting a valid selection", func() {
			req := httptest.NewRequest("POST", "/api/selection", strings.NewReader(`{"userId": "user_2"}`))
			w := httptest.NewRecorder()

			Convey("Then it should return accepted status", func() {
				handler.HandlePostSelection(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var response ackResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Status, ShouldEqual, "accepted")
				So(deps.selectedUsers(), ShouldResemble, []string{"user_2"})
			})
		})

		Convey("When posting an unknown user", func() {
			req := httptest.NewRequest("POST", "/api/selection", strings.NewReader(`{"userId": "nope"}`))
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandlePostSelection(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When handling an invalid JSON request", func() {
			req := httptest.NewRequest("POST", "/api/selection", strings.NewReader(`{invalid json`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandlePostSelection(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the userId is missing", func() {
			req := httptest.NewRequest("POST", "/api/selection", strings.NewReader(`{"userId": "  "}`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandlePostSelection(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the queue is saturated", func() {
			deps.selectErr = queue.ErrQueueFull
			req := httptest.NewRequest("POST", "/api/selection", strings.NewReader(`{"userId": "user_2"}`))
			w := httptest.NewRecorder()

			Convey("Then it should return too many requests status", func() {
				handler.HandlePostSelection(w, req)
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "backpressure")
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/api/selection", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandlePostSelection(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRefreshHandler_HandlePostRefresh(t *testing.T) {
	Convey("Given a refresh handler", t, func() {
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewRefreshHandler(deps)

		Convey("When posting a refresh", func() {
			req := httptest.NewRequest("POST", "/api/refresh", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return accepted status", func() {
				handler.HandlePostRefresh(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.refreshCount(), ShouldEqual, 1)
			})
		})

		Convey("When the queue is saturated", func() {
			deps.refreshErr = queue.ErrQueueFull
			req := httptest.NewRequest("POST", "/api/refresh", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return too many requests status", func() {
				handler.HandlePostRefresh(w, req)
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "backpressure")
			})
		})

		Convey("When the orchestrator fails", func() {
			deps.refreshErr = fmt.Errorf("not running")
			req := httptest.NewRequest("POST", "/api/refresh", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return internal server error", func() {
				handler.HandlePostRefresh(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/api/refresh", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandlePostRefresh(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestWSHandler_Stream(t *testing.T) {
	Convey("Given a running websocket handler", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		deps := newMockOrchestrator(sampleSnapshot())
		handler := api.NewWSHandler(deps)
		go handler.Run(ctx)

		mux := http.NewServeMux()
		mux.HandleFunc("/api/ws", handler.HandleWS)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a client connects", func() {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			Convey("Then it should receive the current snapshot immediately", func() {
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var msg wsEnvelope
				err := conn.ReadJSON(&msg)
				So(err, ShouldBeNil)
				So(msg.Type, ShouldEqual, "snapshot")
				So(msg.Data, ShouldNotBeNil)
				So(msg.Data.Version, ShouldEqual, 3)
			})

			Convey("And it should receive subsequent publications", func() {
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var seed wsEnvelope
				So(conn.ReadJSON(&seed), ShouldBeNil)

				// The broadcast bridge subscribes asynchronously.
				So(waitFor(2*time.Second, func() bool { return deps.subscriberCount() > 0 }), ShouldBeTrue)

				next := sampleSnapshot()
				next.Version = 4
				deps.publish(next)

				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var msg wsEnvelope
				err := conn.ReadJSON(&msg)
				So(err, ShouldBeNil)
				So(msg.Data.Version, ShouldEqual, 4)
			})
		})

		Convey("When using a non-GET method", func() {
			req := httptest.NewRequest("POST", "/api/ws", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleWS(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"started": true,
				"source":  "remote",
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["started"], ShouldEqual, true)
				So(response["source"], ShouldEqual, "remote")
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		wrapped := api.MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		Convey("When serving a request", func() {
			req := httptest.NewRequest("GET", "/teapot", nil)
			w := httptest.NewRecorder()
			wrapped(w, req)

			Convey("Then status and body should pass through", func() {
				So(w.Code, ShouldEqual, http.StatusTeapot)
				So(w.Body.String(), ShouldEqual, "short and stout")
			})
		})
	})
}

// Mock orchestrator that implements the Dependencies interface
type mockOrchestrator struct {
	mu          sync.Mutex
	snap        *model.Snapshot
	source      model.Source
	recsErr     error
	selectErr   error
	refreshErr  error
	selected    []string
	refreshes   int
	subscribers []chan<- *model.Snapshot
}

func newMockOrchestrator(snap *model.Snapshot) *mockOrchestrator {
	return &mockOrchestrator{snap: snap, source: snap.Source}
}

func (m *mockOrchestrator) Snapshot(ctx context.Context) *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *mockOrchestrator) User(ctx context.Context, id string) (model.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.UserByID(id)
}

func (m *mockOrchestrator) Recommendations(ctx context.Context, id string, n int) ([]model.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recsErr != nil {
		return nil, m.recsErr
	}
	if _, ok := m.snap.UserByID(id); !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrUserNotFound, id)
	}
	recs := m.snap.Recommendations
	if n > 0 && n < len(recs) {
		recs = recs[:n]
	}
	return recs, nil
}

func (m *mockOrchestrator) SelectUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selectErr != nil {
		return m.selectErr
	}
	if _, ok := m.snap.UserByID(id); !ok {
		return fmt.Errorf("%w: %s", service.ErrUserNotFound, id)
	}
	m.selected = append(m.selected, id)
	return nil
}

func (m *mockOrchestrator) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshErr != nil {
		return m.refreshErr
	}
	m.refreshes++
	return nil
}

func (m *mockOrchestrator) Source() model.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *mockOrchestrator) Subscribe(ch chan<- *model.Snapshot) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, ch)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub == ch {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *mockOrchestrator) setSnapshot(snap *model.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.source = snap.Source
}

func (m *mockOrchestrator) publish(snap *model.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	for _, ch := range m.subscribers {
		ch <- snap
	}
}

func (m *mockOrchestrator) selectedUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.selected...)
}

func (m *mockOrchestrator) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

func (m *mockOrchestrator) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Local types for testing
type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type summaryResponse struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalSegments     int     `json:"totalSegments"`
	AvgFollowers      int     `json:"avgFollowers"`
	AvgEngagement     float64 `json:"avgEngagement"`
	DistinctInterests int     `json:"distinctInterests"`
	TopCity           string  `json:"topCity"`
	Source            string  `json:"source"`
	Version           uint64  `json:"version"`
}

type wsEnvelope struct {
	Type string          `json:"type"`
	Data *model.Snapshot `json:"data"`
}
