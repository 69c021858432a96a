package http

import (
	"net/http"
)

// handleChat serves /chat and its /chat/generate alias.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "chat", err)
		return
	}
	reply, err := s.chat.Ask(r.Context(), userID(r), req.text())
	if err != nil {
		writeError(w, r, "chat", err)
		return
	}
	NewJSONResponse().Body(map[string]string{"response": reply}).Write(w)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		writeError(w, r, "chat history", err)
		return
	}
	msgs, err := s.chat.History(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, "chat history", err)
		return
	}
	NewJSONResponse().Body(nonNil(msgs)).Write(w)
}
