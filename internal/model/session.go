package model

import "time"

// AuctionSession is a time-boxed trading window. IsActive is an
// explicit flag distinct from time-window membership: the scheduler
// sets it on open and clears it on close, while IsCurrentlyActive also
// checks the clock so a session past its end time stops trading even
// before the close job fires.
type AuctionSession struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	IsActive  bool      `json:"isActive"`
	TotalBids int64     `json:"totalBids"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsCurrentlyActive reports whether the session is open for trading at
// the given time.
func (s *AuctionSession) IsCurrentlyActive(now time.Time) bool {
	return s.IsActive && !now.Before(s.StartTime) && !now.After(s.EndTime)
}

// CategoryGroup is one price band of the auction pool.
type CategoryGroup struct {
	Category Category       `json:"category"`
	Coins    []CoinResponse `json:"coins"`
	Count    int            `json:"count"`
	MinPrice int64          `json:"minPrice"`
	MaxPrice int64          `json:"maxPrice"`
}

// AuctionSnapshot is the public view of the current trading window.
type AuctionSnapshot struct {
	Session         *AuctionSession `json:"session"`
	Categories      []CategoryGroup `json:"categories"`
	NextSessionTime time.Time       `json:"nextSessionTime"`
}

// SpendingStatus reports a buyer's position against the per-session
// spending cap.
type SpendingStatus struct {
	Spent     int64 `json:"spent"`
	Cap       int64 `json:"cap"`
	Remaining int64 `json:"remaining"`
}
