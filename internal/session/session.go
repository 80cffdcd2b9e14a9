// Package session holds the state of one interactive chat session: the
// active documents, the transcript and the auxiliary payloads the format
// extractor parks for display layers.
//
// Auxiliary payloads are looked up by source key (the uploaded file name),
// never by document identity: chunks of a CSV or GeoJSON upload all share
// the same source.
package session

import (
	"sync"

	"chatdoc/internal/domain"
)

// DefaultModel is used until a model is selected.
const DefaultModel = "llama3.2:latest"

// GeoPayload is the geographic side payload of a GeoJSON upload.
type GeoPayload struct {
	Raw    string     `json:"raw"`
	Bounds [4]float64 `json:"bounds"`
}

// Session is the state of one chat. It is safe for concurrent use.
type Session struct {
	mu            sync.RWMutex
	documents     []domain.Document
	messages      []domain.Message
	selectedModel string
	dataFrames    map[string]*Frame
	geo           *GeoPayload
}

// New creates an empty session.
func New() *Session {
	return &Session{selectedModel: DefaultModel, dataFrames: make(map[string]*Frame)}
}

// Documents returns a copy of the active document set.
func (s *Session) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// HasDocuments reports whether a document set is active.
func (s *Session) HasDocuments() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents) > 0
}

// SetDocuments replaces the active document set.
func (s *Session) SetDocuments(docs []domain.Document) {
	s.mu.Lock()
	s.documents = append([]domain.Document(nil), docs...)
	s.mu.Unlock()
}

// Messages returns a copy of the chat transcript.
func (s *Session) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AppendMessage adds a turn to the transcript.
func (s *Session) AppendMessage(role, content string) {
	s.mu.Lock()
	s.messages = append(s.messages, domain.Message{Role: role, Content: content})
	s.mu.Unlock()
}

// SelectedModel returns the language model chosen for answering.
func (s *Session) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedModel
}

// SelectModel sets the language model; an empty name restores the default.
func (s *Session) SelectModel(name string) {
	if name == "" {
		name = DefaultModel
	}
	s.mu.Lock()
	s.selectedModel = name
	s.mu.Unlock()
}

// PutDataFrame parks a tabular payload under source.
func (s *Session) PutDataFrame(source string, f *Frame) {
	s.mu.Lock()
	s.dataFrames[source] = f
	s.mu.Unlock()
}

// DataFrame returns the tabular payload parked under source.
func (s *Session) DataFrame(source string) (*Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.dataFrames[source]
	return f, ok
}

// DataFrameSources lists the source keys that have a tabular payload.
func (s *Session) DataFrameSources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.dataFrames))
	for k := range s.dataFrames {
		out = append(out, k)
	}
	return out
}

// SetGeoJSON stores the singleton geographic payload.
func (s *Session) SetGeoJSON(p *GeoPayload) {
	s.mu.Lock()
	s.geo = p
	s.mu.Unlock()
}

// GeoJSON returns the geographic payload of the last GeoJSON upload.
func (s *Session) GeoJSON() (*GeoPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geo, s.geo != nil
}

// Adopt copies the auxiliary payloads parked in staged into s. Frames
// replace those under the same source; a staged GeoJSON payload replaces
// the current one.
func (s *Session) Adopt(staged *Session) {
	staged.mu.RLock()
	frames := make(map[string]*Frame, len(staged.dataFrames))
	for k, f := range staged.dataFrames {
		frames[k] = f
	}
	geo := staged.geo
	staged.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, f := range frames {
		s.dataFrames[k] = f
	}
	if geo != nil {
		s.geo = geo
	}
}

// Reset clears the documents and the transcript. Auxiliary payloads and
// the selected model survive, matching the "delete document" action.
func (s *Session) Reset() {
	s.mu.Lock()
	s.documents = nil
	s.messages = nil
	s.mu.Unlock()
}
