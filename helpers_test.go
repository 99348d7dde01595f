package filesmanager_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/lista5/filesmanager"
)

// memRepo is an in-memory FileRepo with the same semantics as the SQL
// backends: unique names, upsert on Create, transactional Apply.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]filesmanager.FileRecord
	applied int
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, records: map[int64]filesmanager.FileRecord{}}
}

func (r *memRepo) Get(_ context.Context, id int64) (filesmanager.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return filesmanager.FileRecord{}, filesmanager.ErrNotFound
	}
	return rec, nil
}

func (r *memRepo) GetByName(_ context.Context, name string) (filesmanager.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Name == name {
			return rec, nil
		}
	}
	return filesmanager.FileRecord{}, filesmanager.ErrNotFound
}

func (r *memRepo) Create(_ context.Context, f filesmanager.NewFile) (filesmanager.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsert(f), nil
}

func (r *memRepo) upsert(f filesmanager.NewFile) filesmanager.FileRecord {
	for id, rec := range r.records {
		if rec.Name == f.Name {
			rec.URL = f.URL
			r.records[id] = rec
			return rec
		}
	}
	rec := filesmanager.FileRecord{ID: r.nextID, Name: f.Name, URL: f.URL}
	r.records[rec.ID] = rec
	r.nextID++
	return rec
}

func (r *memRepo) Update(_ context.Context, rec filesmanager.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return filesmanager.ErrNotFound
	}
	for id, other := range r.records {
		if id != rec.ID && other.Name == rec.Name {
			return filesmanager.ErrConflict
		}
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return filesmanager.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memRepo) List(_ context.Context) ([]filesmanager.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]filesmanager.FileRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Apply(_ context.Context, cs filesmanager.Changeset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range cs.Deletes {
		delete(r.records, id)
	}
	for _, u := range cs.Updates {
		rec, ok := r.records[u.ID]
		if !ok {
			continue
		}
		rec.URL = u.URL
		r.records[u.ID] = rec
	}
	for _, f := range cs.Inserts {
		r.upsert(f)
	}
	r.applied++
	return nil
}

func (r *memRepo) names() []string {
	recs, _ := r.List(context.Background())
	names := make([]string, 0, len(recs))
	for _, rec := range recs {
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return names
}

// memStore is an in-memory ObjectStore. Signed URLs carry a counter so each
// signature is distinguishable.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	signed  int
	signErr error
}

func newMemStore(keys ...string) *memStore {
	s := &memStore{objects: map[string][]byte{}}
	for _, k := range keys {
		s.objects[k] = []byte(k)
	}
	return s
}

func (s *memStore) EnsureBucket(context.Context) error { return nil }

func (s *memStore) PutObject(_ context.Context, localPath, key string) (string, error) {
	data, err := os.ReadFile(localPath) //#nosec G304 -- test helper
	if err != nil {
		return "", filesmanager.NewStoreError("put object", key, filesmanager.ErrUploadFailed, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "mem://bucket/" + key, nil
}

func (s *memStore) ListObjects(context.Context) ([]filesmanager.StoreObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]filesmanager.StoreObject, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, filesmanager.StoreObject{Key: k, URL: "mem://bucket/" + k})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memStore) SignedReadURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signErr != nil {
		return "", filesmanager.NewStoreError("sign url", key, filesmanager.ErrSignFailed, s.signErr)
	}
	s.signed++
	return fmt.Sprintf("mem://bucket/%s?ttl=%d&n=%d", key, int(ttl.Seconds()), s.signed), nil
}

func (s *memStore) RenameObject(_ context.Context, oldKey, newKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[oldKey]
	if !ok {
		return filesmanager.NewStoreError("rename object", oldKey, filesmanager.ErrRenameFailed, filesmanager.ErrNotFound)
	}
	s.objects[newKey] = data
	delete(s.objects, oldKey)
	return nil
}

func (s *memStore) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return filesmanager.NewStoreError("delete object", key, filesmanager.ErrDeleteFailed, filesmanager.ErrNotFound)
	}
	delete(s.objects, key)
	return nil
}

func (s *memStore) keys() []string {
	objs, _ := s.ListObjects(context.Background())
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys
}
