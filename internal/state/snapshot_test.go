package state

import (
	"encoding/json"
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestSnapshotStoreDefault(t *testing.T) {
	s := NewSnapshotStore()
	snap := s.Get()
	test.That(t, snap.Q, test.ShouldResemble, [4]float64{1, 0, 0, 0})
	test.That(t, snap.FPS, test.ShouldEqual, 0.0)
	test.That(t, snap.Timestamp, test.ShouldEqual, int64(0))
}

func TestSnapshotStoreCopy(t *testing.T) {
	s := NewSnapshotStore()
	s.Set(Snapshot{Euler: [3]float64{10, 20, 30}, Trust: 0.9})

	got := s.Get()
	got.Euler[0] = 99
	test.That(t, s.Get().Euler[0], test.ShouldEqual, 10.0)
	test.That(t, s.Get().Pose().Yaw, test.ShouldEqual, 30.0)
}

func TestSnapshotJSONNames(t *testing.T) {
	b, err := json.Marshal(Snapshot{Q: [4]float64{1, 0, 0, 0}, Timestamp: 42, Moving: true})
	test.That(t, err, test.ShouldBeNil)

	var m map[string]any
	test.That(t, json.Unmarshal(b, &m), test.ShouldBeNil)
	for _, k := range []string{"q", "euler", "acc", "gyr", "ts", "fps", "trust", "stationary", "moving"} {
		test.That(t, m, test.ShouldContainKey, k)
	}
	test.That(t, m["ts"], test.ShouldEqual, 42.0)
	test.That(t, m["moving"], test.ShouldEqual, true)
}

func TestSnapshotStoreConcurrent(t *testing.T) {
	s := NewSnapshotStore()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Set(Snapshot{Timestamp: int64(i), FPS: float64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := s.Get()
			// never a torn record
			if float64(snap.Timestamp) != snap.FPS {
				t.Errorf("torn snapshot: %+v", snap)
				return
			}
		}
	}()
	wg.Wait()
}
