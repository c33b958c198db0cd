package api

import "sync"

type ResponseStore struct {
	mu        sync.Mutex
	responses map[string]ResponsesResponse
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{
		responses: make(map[string]ResponsesResponse),
	}
}

func (s *ResponseStore) Save(resp ResponsesResponse) {
	s.mu.Lock()
	s.responses[resp.ID] = resp
	s.mu.Unlock()
}

func (s *ResponseStore) Get(id string) (ResponsesResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[id]
	return resp, ok
}

func (s *ResponseStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[id]; !ok {
		return false
	}
	delete(s.responses, id)
	return true
}

func (s *ResponseStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}
