package dto

type RegistryFilter struct {
	Query string `form:"query"`
}

type CreateModelRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Code        string `json:"code"        validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

type CreateColorRequest struct {
	Name string `json:"name" validate:"required,max=60"`
	Code string `json:"code" validate:"required"`
}

// RegistryEntryResponse is shared by models and colors.
type RegistryEntryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

type SupplierResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AttributeValuesResponse lists the values the SKU tables recognise.
type AttributeValuesResponse struct {
	Values map[string][]string `json:"values"`
	Policy string              `json:"unknown_value_policy"`
}
