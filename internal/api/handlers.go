package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/engine"
)

const defaultSimulationsLimit = 20

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListGoals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]GoalDetailsResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDetailsResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse(sum))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "body", "invalid JSON: "+err.Error())
		return
	}
	g, err := s.svc.CreateGoal(r.Context(), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GoalDetails(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsResponse(d))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "body", "invalid JSON: "+err.Error())
		return
	}
	g, err := s.svc.UpdateGoal(r.Context(), chi.URLParam(r, "goalID"), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGoal(r.Context(), chi.URLParam(r, "goalID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExplainStatus(w http.ResponseWriter, r *http.Request) {
	results, err := s.svc.ExplainStatus(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCriterionResponses(results))
}

func (s *Server) handleGetAllocations(w http.ResponseWriter, r *http.Request) {
	allocs, err := s.svc.Allocations(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationResponses(allocs))
}

func (s *Server) handleSetAllocations(w http.ResponseWriter, r *http.Request) {
	var req AllocationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "body", "invalid JSON: "+err.Error())
		return
	}
	allocs := make([]domain.GoalAllocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocs = append(allocs, domain.GoalAllocation{
			InvestmentID:  a.InvestmentID,
			CurrentValue:  a.CurrentValue,
			AllocationPct: a.AllocationPct,
		})
	}
	stored, err := s.svc.SetAllocations(r.Context(), chi.URLParam(r, "goalID"), allocs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationResponses(stored))
}

// handleSimulate runs a simulation. A persistence failure still answers 200
// with saved=false.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	// An empty body runs with defaults.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "body", "invalid JSON: "+err.Error())
		return
	}
	if req.NumSimulations < 0 {
		writeBadRequest(w, "num_simulations", "must not be negative")
		return
	}

	run, err := s.svc.Simulate(r.Context(), engine.SimulateRequest{
		GoalID:         chi.URLParam(r, "goalID"),
		NumPaths:       req.NumSimulations,
		Seed:           req.Seed,
		RecordSnapshot: req.RecordSnapshot,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultSimulationsLimit)
	if !ok {
		return
	}
	sims, err := s.svc.ListSimulations(r.Context(), chi.URLParam(r, "goalID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]SimulationResponse, 0, len(sims))
	for _, sim := range sims {
		out = append(out, toSimulationResponse(sim))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	sim, err := s.svc.GetSimulation(r.Context(), chi.URLParam(r, "simulationID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSimulationResponse(sim))
}

func (s *Server) handleRescue(w http.ResponseWriter, r *http.Request) {
	seed, ok := querySeed(w, r)
	if !ok {
		return
	}
	res, err := s.svc.RescueStrategies(r.Context(), chi.URLParam(r, "goalID"), seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRescueResponse(res))
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	n, ok := queryInt(w, r, "num_simulations", 0)
	if !ok {
		return
	}
	seed, ok := querySeed(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")
	p, err := s.svc.Project(r.Context(), goalID, n, seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionResponse(goalID, p))
}

// handleHistory returns snapshots, optionally bounded by from/to (YYYY-MM-DD).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeBadRequest(w, "from", "must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeBadRequest(w, "to", "must be YYYY-MM-DD")
			return
		}
		to = t
	}

	snaps, err := s.svc.GoalHistory(r.Context(), chi.URLParam(r, "goalID"), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponses(snaps))
}

// queryInt parses an optional integer query parameter. On failure it writes a
// 400 and returns false.
func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeBadRequest(w, key, "must be an integer")
		return 0, false
	}
	return n, true
}

// querySeed parses the optional seed query parameter.
func querySeed(w http.ResponseWriter, r *http.Request) (*uint64, bool) {
	v := r.URL.Query().Get("seed")
	if v == "" {
		return nil, true
	}
	seed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		writeBadRequest(w, "seed", "must be an unsigned integer")
		return nil, false
	}
	return &seed, true
}
