package model

type ParticipantProfile struct {
	Id                 string `json:"id"`
	RegistrationNumber string `json:"registration_number"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Gender             string `json:"gender"`
	Branch             string `json:"branch"`
	Year               int16  `json:"year"`
	Hosteler           bool   `json:"hosteler"`
}

type LookupParticipantRequest struct {
	RegistrationNumber string `json:"registration_number" validate:"required,len=10"`
}

type CreateProfileRequest struct {
	Name               string `json:"name" validate:"required,max=100"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone" validate:"required,numeric,min=10,max=15"`
	RegistrationNumber string `json:"registration_number" validate:"required,len=10"`
	Gender             string `json:"gender" validate:"required,oneof=male female"`
	Branch             string `json:"branch" validate:"required,oneof=CSE CSD CSM AIML IT ECE EEE MECH CIVIL CHEM"`
	Year               int16  `json:"year" validate:"required,oneof=1 2 3 4"`
	Hosteler           *bool  `json:"hosteler" validate:"required"`
}
