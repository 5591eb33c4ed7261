package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

// sampleRecord is the request the service smoke test has always sent.
var sampleRecord = entities.FeatureRecord{
	CropType: 9, SoilType: 2, SoilPH: 6.5, Temperature: 26, Humidity: 70,
	WindSpeed: 5, N: 80, P: 40, K: 60, SoilQuality: 7, Month: 1, Year: 2026,
}

func newPredictCmd(o *options) *cobra.Command {
	rec := sampleRecord
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Send one feature record to the prediction service",
		Long: `Sends an already encoded feature record and prints the response.
Codes are not checked here; the service sees exactly what is given.

Example:
  agripredict predict --crop-type 7 --soil-type 4 --month 6 --year 2025`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, release, err := o.predictor()
			if err != nil {
				return err
			}
			defer release()

			res, err := p.Predict(cmd.Context(), rec)
			if err != nil {
				if core.IsTransport(err) {
					return fmt.Errorf("request failed: %w", err)
				}
				return fmt.Errorf("prediction error: %w", err)
			}
			b, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Response from backend:")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&rec.CropType, "crop-type", rec.CropType, "Crop_Type code")
	f.IntVar(&rec.SoilType, "soil-type", rec.SoilType, "Soil_Type code")
	f.Float64Var(&rec.SoilPH, "soil-ph", rec.SoilPH, "Soil_pH")
	f.Float64Var(&rec.Temperature, "temperature", rec.Temperature, "Temperature (°C)")
	f.Float64Var(&rec.Humidity, "humidity", rec.Humidity, "Humidity (%)")
	f.Float64Var(&rec.WindSpeed, "wind-speed", rec.WindSpeed, "Wind_Speed")
	f.Float64Var(&rec.N, "n", rec.N, "Nitrogen")
	f.Float64Var(&rec.P, "p", rec.P, "Phosphorus")
	f.Float64Var(&rec.K, "k", rec.K, "Potassium")
	f.Float64Var(&rec.SoilQuality, "soil-quality", rec.SoilQuality, "Soil_Quality")
	f.IntVar(&rec.Month, "month", rec.Month, "month")
	f.IntVar(&rec.Year, "year", rec.Year, "year")
	return cmd
}
