// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package studio

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TaskKind names a background operation.
type TaskKind string

const (
	TaskGenerate TaskKind = "generate"
	TaskCrawl    TaskKind = "crawl"
	TaskAnalyse  TaskKind = "analyse"
)

// Task is the progress record of one background operation.
type Task struct {
	ID         string     `json:"id"`
	Kind       TaskKind   `json:"kind"`
	Completed  int        `json:"completed"`
	Total      int        `json:"total"`
	Done       bool       `json:"done"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (s *Studio) newTask(kind TaskKind, total int) Task {
	t := &Task{ID: uuid.NewString(), Kind: kind, Total: total, StartedAt: time.Now()}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	return *t
}

func (s *Studio) progressTask(id string, completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Completed, t.Total = completed, total
	}
}

func (s *Studio) finishTask(id string, err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Done = true
		t.FinishedAt = &now
		if err != nil {
			t.Error = err.Error()
		}
	}
}

// Task returns a snapshot of the task with id.
func (s *Studio) Task(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns snapshots of every task, newest first.
func (s *Studio) Tasks() []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b Task) int { return b.StartedAt.Compare(a.StartedAt) })
	return out
}
