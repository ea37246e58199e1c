package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/encuentro-app/encuentro/internal/encounter"
	"github.com/encuentro-app/encuentro/internal/gateway"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/internal/progress"
)

// maxAudioBytes caps voice turn uploads. Whisper rejects files above 25 MB
// anyway, so there is no point accepting more.
const maxAudioBytes = 25 << 20

type startConversationRequest struct {
	SituationID   string   `json:"situation_id" binding:"required"`
	Modality      string   `json:"modality" binding:"required"`
	TargetWordIDs []string `json:"target_word_ids" binding:"required"`
}

type typedTurnRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) startConversation(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := s.svc.StartOrReuseConversation(c.Request.Context(), userID, req.SituationID, progress.Modality(req.Modality), req.TargetWordIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationJSON(conv))
}

func (s *Server) typedTurn(c *gin.Context) {
	userID, convID, ok := s.identify(c)
	if !ok {
		return
	}
	var req typedTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := s.svc.TypedTurn(c.Request.Context(), userID, convID, req.Text)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detected_word_ids": emptyIfNil(res.DetectedWordIDs),
		"missing_word_ids":  emptyIfNil(res.MissingWordIDs),
		"complete":          res.Complete,
	})
}

func (s *Server) coachReply(c *gin.Context) {
	userID, convID, ok := s.identify(c)
	if !ok {
		return
	}

	res, err := s.svc.CoachReply(c.Request.Context(), userID, convID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": res.Text})
}

func (s *Server) voiceTurn(c *gin.Context) {
	userID, convID, ok := s.identify(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		s.badRequest(c, `multipart field "audio" is required`)
		return
	}
	if fh.Size > maxAudioBytes {
		s.badRequest(c, "audio file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.badRequest(c, "cannot read audio file")
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, maxAudioBytes))
	if err != nil {
		s.badRequest(c, "cannot read audio file")
		return
	}

	res, err := s.svc.VoiceTurn(c.Request.Context(), userID, convID, audio, fh.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transcript":          res.Transcript,
		"detected_word_ids":   emptyIfNil(res.DetectedWordIDs),
		"missing_word_ids":    emptyIfNil(res.MissingWordIDs),
		"assistant_text":      res.AssistantText,
		"assistant_audio_url": res.AssistantAudioURL,
		"complete":            res.Complete,
	})
}

func (s *Server) missingWords(c *gin.Context) {
	userID, convID, ok := s.identify(c)
	if !ok {
		return
	}

	missing, err := s.svc.MissingWords(c.Request.Context(), userID, convID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missing_word_ids": emptyIfNil(missing)})
}

// userID reads the upstream-authenticated user identity. Replies 400 and
// reports false when the header is missing or malformed.
func (s *Server) userID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		s.badRequest(c, "X-User-ID header is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.badRequest(c, "X-User-ID is not a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

// identify reads the user identity and the :id route parameter.
func (s *Server) identify(c *gin.Context) (userID, convID uuid.UUID, ok bool) {
	userID, ok = s.userID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.badRequest(c, "conversation id is not a valid uuid")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, convID, true
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      msg,
		"request_id": observe.RequestID(c.Request.Context()),
	})
}

// respondError maps orchestrator and gateway errors to status codes. Provider
// failures surface as 502: the request was fine, the upstream was not.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var provErr *gateway.ProviderError
	var malformed *gateway.MalformedOutputError
	switch {
	case errors.Is(err, encounter.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, encounter.ErrModalityMismatch),
		errors.Is(err, encounter.ErrInvalidModality),
		errors.Is(err, encounter.ErrUnknownWordID),
		errors.Is(err, progress.ErrEmptyTargetSet):
		status = http.StatusBadRequest
	case errors.As(err, &provErr), errors.As(err, &malformed):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": observe.RequestID(c.Request.Context()),
	})
}

// conversationJSON shapes a conversation for the API.
func conversationJSON(conv *progress.Conversation) gin.H {
	return gin.H{
		"id":                   conv.ID.String(),
		"situation_id":         conv.SituationID,
		"modality":             string(conv.Modality),
		"target_word_ids":      emptyIfNil(conv.TargetWordIDs),
		"used_typed_word_ids":  emptyIfNil(conv.UsedTypedWordIDs),
		"used_spoken_word_ids": emptyIfNil(conv.UsedSpokenWordIDs),
		"status":               string(conv.Status),
		"created_at":           conv.CreatedAt,
		"updated_at":           conv.UpdatedAt,
	}
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
