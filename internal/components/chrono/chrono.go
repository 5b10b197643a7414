package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl creates a clock reporting times in `location`, a nil location means time.Local.
func NewStandardImpl(location *time.Location) StandardImpl {
	if location == nil {
		location = time.Local
	}
	return StandardImpl{location: location}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl is an API that always returns the same instant, it advances by
// Step every time Now is called when Step is non-zero.
type FixedImpl struct {
	Current time.Time
	Step    time.Duration
}

func (f *FixedImpl) Now() time.Time {
	now := f.Current
	f.Current = f.Current.Add(f.Step)
	return now
}

func (f *FixedImpl) Location() *time.Location {
	return f.Current.Location()
}
