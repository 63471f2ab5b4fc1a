package http

import perr "arguxai/internal/platform/errors"

var errDiagnosisOff = perr.Unavailablef("diagnosis is not configured")
