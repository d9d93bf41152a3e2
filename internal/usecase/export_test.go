package usecases

import "time"

// SetClock replaces the time source and id generator of the upload use case
func (uc *UploadAgreementUseCase) SetClock(now func() time.Time, newID func() string) {
	uc.now = now
	uc.newID = newID
}
