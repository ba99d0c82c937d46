package service

import "time"

// timeNow is swappable for tests.
var timeNow = time.Now
