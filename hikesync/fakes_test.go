package hikesync

import (
	"context"
	"fmt"
	"sync"
)

// In-memory collaborators with failure injection for pipeline tests.

type fakeLocal struct {
	mu           sync.Mutex
	hikes        []Hike
	observations map[string][]Observation

	listUnsyncedErr error
	listObsErr      map[string]error
	markHikeErr     error
	markObsErr      error
	deleteErr       error

	deletedHikes []string
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{
		observations: map[string][]Observation{},
		listObsErr:   map[string]error{},
	}
}

func (f *fakeLocal) addHike(h Hike, obs ...Observation) {
	f.hikes = append(f.hikes, h)
	f.observations[h.ID] = append(f.observations[h.ID], obs...)
}

func (f *fakeLocal) ListUnsyncedHikes(ctx context.Context, guestID string) ([]Hike, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listUnsyncedErr != nil {
		return nil, f.listUnsyncedErr
	}
	var out []Hike
	for _, h := range f.hikes {
		if !h.Synced && h.OwnerID == guestID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeLocal) ListSyncedHikes(ctx context.Context, ownerID string) ([]Hike, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Hike
	for _, h := range f.hikes {
		if h.Synced && h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeLocal) ListObservations(ctx context.Context, hikeID string) ([]Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listObsErr[hikeID]; err != nil {
		return nil, err
	}
	return append([]Observation(nil), f.observations[hikeID]...), nil
}

func (f *fakeLocal) MarkHikeSynced(ctx context.Context, hikeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markHikeErr != nil {
		return f.markHikeErr
	}
	for i := range f.hikes {
		if f.hikes[i].ID == hikeID {
			f.hikes[i].Synced = true
			return nil
		}
	}
	return fmt.Errorf("hike not found: %s", hikeID)
}

func (f *fakeLocal) MarkObservationSynced(ctx context.Context, observationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markObsErr != nil {
		return f.markObsErr
	}
	for hikeID, list := range f.observations {
		for i := range list {
			if list[i].ID == observationID {
				f.observations[hikeID][i].Synced = true
				return nil
			}
		}
	}
	return fmt.Errorf("observation not found: %s", observationID)
}

func (f *fakeLocal) DeleteHike(ctx context.Context, hikeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.hikes {
		if f.hikes[i].ID == hikeID {
			f.hikes = append(f.hikes[:i], f.hikes[i+1:]...)
			delete(f.observations, hikeID)
			f.deletedHikes = append(f.deletedHikes, hikeID)
			return nil
		}
	}
	return fmt.Errorf("hike not found: %s", hikeID)
}

func (f *fakeLocal) hike(id string) *Hike {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.hikes {
		if f.hikes[i].ID == id {
			h := f.hikes[i]
			return &h
		}
	}
	return nil
}

type fakeRemote struct {
	mu           sync.Mutex
	hikes        map[string]Hike
	observations map[string]Observation

	createHikeErr map[string]error // keyed by hike id
	createObsErr  map[string]error // keyed by observation id
	existsErr     map[string]error // keyed by hike id
	missing       map[string]bool  // force HikeExists -> false
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		hikes:         map[string]Hike{},
		observations:  map[string]Observation{},
		createHikeErr: map[string]error{},
		createObsErr:  map[string]error{},
		existsErr:     map[string]error{},
		missing:       map[string]bool{},
	}
}

func (f *fakeRemote) CreateHike(ctx context.Context, hike Hike) (Hike, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createHikeErr[hike.ID]; err != nil {
		return Hike{}, err
	}
	f.hikes[hike.ID] = hike
	return hike, nil
}

func (f *fakeRemote) CreateObservation(ctx context.Context, obs Observation) (Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createObsErr[obs.ID]; err != nil {
		return Observation{}, err
	}
	f.observations[obs.ID] = obs
	return obs, nil
}

func (f *fakeRemote) HikeExists(ctx context.Context, hikeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.existsErr[hikeID]; err != nil {
		return false, err
	}
	if f.missing[hikeID] {
		return false, nil
	}
	_, ok := f.hikes[hikeID]
	return ok, nil
}

type fakeUploader struct {
	mu        sync.Mutex
	failPaths map[string]error
	hangPaths map[string]bool // block until ctx expires
	uploaded  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		failPaths: map[string]error{},
		hangPaths: map[string]bool{},
	}
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, hikeID, observationID string) (string, error) {
	f.mu.Lock()
	hang := f.hangPaths[localPath]
	err := f.failPaths[localPath]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.uploaded = append(f.uploaded, localPath)
	f.mu.Unlock()
	return "https://cdn.example.com/" + localPath, nil
}

type fakeFiles struct {
	mu        sync.Mutex
	sizes     map[string]int64
	existsErr map[string]error
	removeErr map[string]error
	removed   []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		sizes:     map[string]int64{},
		existsErr: map[string]error{},
		removeErr: map[string]error{},
	}
}

func (f *fakeFiles) Exists(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.existsErr[path]; err != nil {
		return false, err
	}
	_, ok := f.sizes[path]
	return ok, nil
}

func (f *fakeFiles) Size(path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, ok := f.sizes[path]
	if !ok {
		return 0, ErrFileNotFound
	}
	return size, nil
}

func (f *fakeFiles) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErr[path]; err != nil {
		return err
	}
	if _, ok := f.sizes[path]; !ok {
		return ErrFileNotFound
	}
	delete(f.sizes, path)
	f.removed = append(f.removed, path)
	return nil
}

// collect drains a progress stream to completion.
func collect(ch <-chan Progress) []Progress {
	var events []Progress
	for p := range ch {
		events = append(events, p)
	}
	return events
}
