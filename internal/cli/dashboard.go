package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/agripredict/internal/dashboard"
	"github.com/LeonardoBeccarini/agripredict/internal/encoder"
	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
)

func newDashboardCmd(o *options) *cobra.Command {
	fc := dashboard.DefaultConditions(time.Time{})
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Encode field conditions, predict and render the result",
		Long: `Runs one dashboard interaction in the terminal: the inputs are validated
and encoded here, sent to the predictor, and the result is rendered with its
severity and feature importance chart.

Example:
  agripredict dashboard --crop Rice --soil Silt --temperature 31 --date 2025-07-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			r := dashboard.NewRenderer()

			view, err := func() (dashboard.View, error) {
				today := o.now()
				fc.ObservationDate = today
				if date != "" {
					d, err := time.Parse(time.DateOnly, date)
					if err != nil {
						return dashboard.View{}, &dashboard.ValidationError{Fields: []dashboard.FieldError{{
							Field: "observation_date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", date),
						}}}
					}
					fc.ObservationDate = d
				}
				if err := dashboard.Validate(fc); err != nil {
					return dashboard.View{}, err
				}
				rec, err := encoder.Encode(fc)
				if err != nil {
					return dashboard.View{}, err
				}
				p, release, err := o.predictor()
				if err != nil {
					return dashboard.View{}, err
				}
				defer release()
				res, err := p.Predict(cmd.Context(), rec)
				if err != nil {
					return dashboard.View{}, err
				}
				return dashboard.BuildView(fc, res, today), nil
			}()
			if err != nil {
				fmt.Fprintln(out, r.RenderFailure(err))
				kind, _ := dashboard.Describe(err)
				return fmt.Errorf("%s: %w", kind, err)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			fmt.Fprintln(out, r.Render(view))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&fc.Crop, "crop", fc.Crop, fmt.Sprintf("crop %v", entities.CropNames))
	f.StringVar(&fc.Soil, "soil", fc.Soil, fmt.Sprintf("soil %v", entities.SoilNames))
	f.Float64Var(&fc.SoilPH, "soil-ph", fc.SoilPH, "soil pH (4-9)")
	f.Float64Var(&fc.Temperature, "temperature", fc.Temperature, "temperature in °C (-10-50)")
	f.Float64Var(&fc.Humidity, "humidity", fc.Humidity, "humidity % (0-100)")
	f.Float64Var(&fc.N, "n", fc.N, "nitrogen (0-200)")
	f.Float64Var(&fc.P, "p", fc.P, "phosphorus (0-200)")
	f.Float64Var(&fc.K, "k", fc.K, "potassium (0-200)")
	f.Float64Var(&fc.SoilQuality, "soil-quality", fc.SoilQuality, "soil quality index (0-100)")
	f.StringVar(&date, "date", "", "observation date YYYY-MM-DD (default today)")
	f.BoolVar(&asJSON, "json", false, "print the view model as JSON")
	return cmd
}
