package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"famspend/internal/chat"
	"famspend/internal/core"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatExpenseResponse struct {
	Success     bool           `json:"success"`
	Expense     *expenseView   `json:"expense,omitempty"`
	Message     string         `json:"message"`
	ParsedData  *parsedView    `json:"parsedData,omitempty"`
	FamilyTotal *float64       `json:"familyTotal,omitempty"`
	Language    *core.Language `json:"language,omitempty"`
}

type chatQueryResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Context  *contextView   `json:"context,omitempty"`
	Language *core.Language `json:"language,omitempty"`
}

type turnResponse struct {
	Message messageView `json:"message"`
	Stats   statsView   `json:"stats"`
}

func readMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return "", chat.ErrEmptyMessage
	}
	return msg, nil
}

func (s *Server) handleChatExpense(w http.ResponseWriter, r *http.Request) {
	msg, err := readMessage(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	id := identityFrom(r.Context())
	res, err := s.engine.LogExpense(r.Context(), id, msg)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := newExpenseView(res.Expense)
	out := chatExpenseResponse{
		Success:    true,
		Expense:    &e,
		Message:    res.Message,
		ParsedData: newParsedView(res.Parsed),
		Language:   &res.Language,
	}
	if res.FamilyTotal != nil {
		total := res.FamilyTotal.Major()
		out.FamilyTotal = &total
	}
	s.events.LogExpenseRecorded(r.Context(), id.UserID, id.FamilyID, res.Expense.ID, res.Expense.Amount.Minor, res.Expense.Category)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	msg, err := readMessage(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	res, err := s.engine.Query(r.Context(), identityFrom(r.Context()), msg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatQueryResponse{
		Success:  true,
		Message:  res.Message,
		Context:  newContextView(res.Context),
		Language: &res.Language,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Create(identityFrom(r.Context()))
	writeJSON(w, http.StatusCreated, newSessionView(session, s.money))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	session, err := s.sessions.Get(chi.URLParam(r, "id"), identityFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return session, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session, s.money))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id"), identityFrom(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	msg, err := readMessage(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	reply, err := session.Submit(r.Context(), msg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{
		Message: newMessageView(reply),
		Stats:   newStatsView(session.Stats(), s.money),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	stats, err := session.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsView(stats, s.money))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Reset()
	writeJSON(w, http.StatusOK, newSessionView(session, s.money))
}

// badRequest renders body decoding problems; anything else goes through writeError.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, chat.ErrEmptyMessage) {
		writeError(w, r, err)
		return
	}
	writeErrorCode(w, http.StatusBadRequest, "invalid_request", err.Error())
}
