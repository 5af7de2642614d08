package validation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Services validate the same `binding:` tags gin binds against
	validate.SetTagName("binding")
	registerCustomTags(validate)
}

// RegisterGinValidators registers the custom tags on gin's binding
// engine so request structs can use them in `binding:` tags. Call once
// at startup.
func RegisterGinValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustomTags(v)
	}
}

func registerCustomTags(v *validator.Validate) {
	_ = v.RegisterValidation("booking_status", validBookingStatus)
	_ = v.RegisterValidation("service_type", validServiceType)
	_ = v.RegisterValidation("payment_method", validPaymentMethod)
	_ = v.RegisterValidation("discount_type", validDiscountType)
}

// ValidateStruct validates a struct using registered validators and
// returns a field-level ValidationError on failure.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(verrs)
		}
		return err
	}
	return nil
}

func validBookingStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "confirmed", "driver_assigned", "driver_en_route",
		"arrived_pickup", "pickup_completed", "in_transit",
		"arrived_delivery", "delivered", "completed", "cancelled", "failed":
		return true
	}
	return false
}

func validServiceType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "delivery", "pickup", "moving", "express", "scheduled":
		return true
	}
	return false
}

func validPaymentMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "card", "wallet", "cash":
		return true
	}
	return false
}

func validDiscountType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "percentage", "fixed":
		return true
	}
	return false
}
