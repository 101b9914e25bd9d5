package analytics

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "analytics")
