package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type VehicleType string

const (
	Car     VehicleType = "Car"
	Truck   VehicleType = "Truck"
	Bike    VehicleType = "Bike"
	Scooter VehicleType = "Scooter"
)

var VehicleTypes = []VehicleType{Car, Truck, Bike, Scooter}

func ParseVehicleType(s string) (VehicleType, error) {
	for _, v := range VehicleTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vehicle type %q", s)
}

// UnmarshalJSON keeps unknown types readable; a driver list must not fail on one bad row.
func (v *VehicleType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, err := ParseVehicleType(s); err == nil {
		*v = t
		return nil
	}
	*v = VehicleType(s)
	return nil
}

type Vehicle struct {
	VehicleNo   string      `json:"vehicleNo"`
	DriverName  string      `json:"driverName"`
	VehicleType VehicleType `json:"vehicleType"`
}

// Registration is the register payload; the password goes out as typed.
type Registration struct {
	DriverName  string      `json:"driverName"`
	VehicleNo   string      `json:"vehicleNo"`
	VehicleType VehicleType `json:"vehicleType"`
	Password    string      `json:"password"`
}
