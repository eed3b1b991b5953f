package store

import (
	"sync"

	"github.com/RubachokBoss/study-helper/internal/models"
)

type View string

const (
	ViewHome     View = "home"
	ViewDocument View = "document"
	ViewTeacher  View = "teacher"
)

// State is the process-wide UI state. Values handed out by Store are deep
// copies; mutate only through Dispatch.
type State struct {
	CurrentView     View                `json:"currentView"`
	CurrentDocument string              `json:"currentDocument,omitempty"`
	Documents       []*models.Document  `json:"documents"`
	IsLoading       bool                `json:"isLoading"`
	Error           string              `json:"error,omitempty"`
	UploadProgress  int                 `json:"uploadProgress"`
	ChatSession     *models.ChatSession `json:"chatSession,omitempty"`
	IsTeacherMode   bool                `json:"isTeacherMode"`
}

func InitialState() State {
	return State{
		CurrentView: ViewHome,
		Documents:   []*models.Document{},
	}
}

func (s State) Clone() State {
	out := s
	out.Documents = make([]*models.Document, len(s.Documents))
	for i, d := range s.Documents {
		out.Documents[i] = d.Clone()
	}
	if s.ChatSession != nil {
		cs := *s.ChatSession
		out.ChatSession = &cs
	}
	return out
}

func (s State) Document(id string) *models.Document {
	for _, d := range s.Documents {
		if d.DocumentID == id {
			return d.Clone()
		}
	}
	return nil
}

type Action interface {
	apply(State) State
}

type SetView struct{ View View }

type SetCurrentDocument struct{ DocumentID string }

type SetDocuments struct{ Documents []*models.Document }

type AddDocument struct{ Document *models.Document }

type UpdateDocument struct{ Document *models.Document }

type RemoveDocument struct{ DocumentID string }

type SetLoading struct{ Loading bool }

type SetError struct{ Message string }

type ClearError struct{}

type SetUploadProgress struct{ Progress int }

type SetChatSession struct{ Session *models.ChatSession }

type ToggleTeacherMode struct{}

type Reset struct{}

func (a SetView) apply(s State) State {
	s.CurrentView = a.View
	return s
}

func (a SetCurrentDocument) apply(s State) State {
	s.CurrentDocument = a.DocumentID
	s.CurrentView = ViewDocument
	return s
}

func (a SetDocuments) apply(s State) State {
	docs := make([]*models.Document, 0, len(a.Documents))
	for _, d := range a.Documents {
		if d != nil {
			docs = append(docs, d.Clone())
		}
	}
	s.Documents = docs
	return s
}

func (a AddDocument) apply(s State) State {
	if a.Document == nil {
		return s
	}
	docs := make([]*models.Document, 0, len(s.Documents)+1)
	docs = append(docs, a.Document.Clone())
	s.Documents = append(docs, s.Documents...)
	return s
}

// apply merges the patch into the stored document with the same id. Empty
// filename and zero upload time in the patch keep the stored values.
func (a UpdateDocument) apply(s State) State {
	if a.Document == nil {
		return s
	}
	docs := make([]*models.Document, len(s.Documents))
	for i, d := range s.Documents {
		if d.DocumentID != a.Document.DocumentID {
			docs[i] = d
			continue
		}
		merged := a.Document.Clone()
		if merged.OriginalFilename == "" {
			merged.OriginalFilename = d.OriginalFilename
		}
		if merged.UploadedAt.IsZero() {
			merged.UploadedAt = d.UploadedAt
		}
		merged.Normalize()
		docs[i] = merged
	}
	s.Documents = docs
	return s
}

// apply drops the document and leaves the document view if it was open.
func (a RemoveDocument) apply(s State) State {
	docs := make([]*models.Document, 0, len(s.Documents))
	for _, d := range s.Documents {
		if d.DocumentID != a.DocumentID {
			docs = append(docs, d)
		}
	}
	s.Documents = docs
	if s.CurrentDocument == a.DocumentID {
		s.CurrentDocument = ""
		if s.CurrentView == ViewDocument {
			s.CurrentView = ViewHome
		}
	}
	return s
}

func (a SetLoading) apply(s State) State {
	s.IsLoading = a.Loading
	return s
}

func (a SetError) apply(s State) State {
	s.Error = a.Message
	s.IsLoading = false
	return s
}

func (ClearError) apply(s State) State {
	s.Error = ""
	return s
}

func (a SetUploadProgress) apply(s State) State {
	s.UploadProgress = a.Progress
	return s
}

func (a SetChatSession) apply(s State) State {
	if a.Session == nil {
		s.ChatSession = nil
		return s
	}
	cs := *a.Session
	s.ChatSession = &cs
	return s
}

func (ToggleTeacherMode) apply(s State) State {
	if s.IsTeacherMode {
		s.CurrentView = ViewHome
	} else {
		s.CurrentView = ViewTeacher
	}
	s.IsTeacherMode = !s.IsTeacherMode
	return s
}

func (Reset) apply(State) State {
	return InitialState()
}

// Reduce is pure: the input state is never modified and the result shares
// no mutable memory with the action payload.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s.Clone())
}

type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextID      int
}

func New() *Store {
	return &Store{
		state:       InitialState(),
		subscribers: make(map[int]func(State)),
	}
}

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state.Clone()
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) Reset() {
	s.Dispatch(Reset{})
}
