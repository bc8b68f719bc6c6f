// README: Demo roster loaded into an empty fleet (five drivers, five cabs, three electric).
package fleet

import (
	"context"
	"time"

	"cabsys/internal/infra"
	"cabsys/internal/types"
)

// DemoDriverPassword is the login password of every seeded driver.
const DemoDriverPassword = "driver123"

type seedCab struct {
	plate    string
	class    string
	rate     float64
	electric bool
	seats    int
}

var demoDrivers = []Driver{
	{ID: "drv-001", Name: "Rajesh Kumar", Email: "rajesh@driver.com", LicenseNumber: "DL1234567", Phone: "9988776655", Rating: 4.5},
	{ID: "drv-002", Name: "Amit Sharma", Email: "amit@driver.com", LicenseNumber: "DL2345678", Phone: "9988776656", Rating: 4.8},
	{ID: "drv-003", Name: "Suresh Patel", Email: "suresh@driver.com", LicenseNumber: "DL3456789", Phone: "9988776657", Rating: 4.2},
	{ID: "drv-004", Name: "Vikram Singh", Email: "vikram@driver.com", LicenseNumber: "DL4567890", Phone: "9988776658", Rating: 4.7},
	{ID: "drv-005", Name: "Ravi Verma", Email: "ravi@driver.com", LicenseNumber: "DL5678901", Phone: "9988776659", Rating: 4.6},
}

var demoCabs = []seedCab{
	{"DL-01-AB-1234", "sedan", 12, true, 4},
	{"DL-02-CD-5678", "suv", 15, false, 6},
	{"DL-03-EF-9012", "hatchback", 10, true, 4},
	{"DL-04-GH-3456", "sedan", 12, false, 4},
	{"DL-05-IJ-7890", "suv", 15, true, 7},
}

// SeedDemo populates an empty roster. It is a no-op once any driver exists.
func (s *Service) SeedDemo(ctx context.Context) error {
	existing, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	hash, err := infra.HashPassword(DemoDriverPassword)
	if err != nil {
		return err
	}
	now := time.Now()
	for i, d := range demoDrivers {
		d.Available = true
		d.PasswordHash = hash
		d.CreatedAt = now
		if err := s.repo.CreateDriver(ctx, &d); err != nil {
			return err
		}
		sc := demoCabs[i]
		cab := &Cab{
			ID:           types.ID("cab-00" + string(rune('1'+i))),
			PlateNumber:  sc.plate,
			VehicleClass: sc.class,
			RatePerKm:    sc.rate,
			Electric:     sc.electric,
			Seats:        sc.seats,
			Available:    true,
			DriverID:     d.ID,
			CreatedAt:    now,
		}
		if err := s.repo.CreateCab(ctx, cab); err != nil {
			return err
		}
	}
	s.log.WithField("cabs", len(demoCabs)).Info("demo fleet seeded")
	return nil
}
