package service

// Recorder recibe eventos de negocio para métricas.
type Recorder interface {
	LoginAttempt(outcome string)
	AccountLocked()
	PatientRegistered()
	BookingCreated()
	ReportGenerated(channel string)
	EventPublishFailed()
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string)    {}
func (nopRecorder) AccountLocked()         {}
func (nopRecorder) PatientRegistered()     {}
func (nopRecorder) BookingCreated()        {}
func (nopRecorder) ReportGenerated(string) {}
func (nopRecorder) EventPublishFailed()    {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
