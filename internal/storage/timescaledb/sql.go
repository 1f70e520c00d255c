package timescaledb

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;`

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS simulation_runs (
    run_id text PRIMARY KEY,
    created_at timestamp WITH TIME ZONE NOT NULL,
    latitude float8 NULL,
    longitude float8 NULL,
    weather_file text NULL,
    weather_kind text NULL,
    plants integer NOT NULL,
    energy_yield_kwh float8 NULL,
    rated_power_kwp float8 NULL,
    surface_area_m2 float8 NULL,
    specific_yield_kwh_kwp float8 NULL,
    area_specific_yield_kwh_m2 float8 NULL,
    peak_ac_power float8 NULL
);`

const createPlantsTableSQL = `
CREATE TABLE IF NOT EXISTS plant_yields (
    run_id text NOT NULL REFERENCES simulation_runs (run_id) ON DELETE CASCADE,
    plant_index integer NOT NULL,
    uid text NULL,
    module_name text NULL,
    inverter_name text NULL,
    energy_yield_kwh float8 NULL,
    dc_energy_kwh float8 NULL,
    rated_power_kwp float8 NULL,
    surface_area_m2 float8 NULL,
    specific_yield_kwh_kwp float8 NULL,
    area_specific_yield_kwh_m2 float8 NULL,
    mean_cell_temperature float8 NULL,
    loss_irradiation_kwh float8 NULL,
    loss_datasheet_kwh float8 NULL,
    loss_cables_kwh float8 NULL,
    loss_inverter_kwh float8 NULL,
    loss_clipping_kwh float8 NULL,
    loss_standby_kwh float8 NULL,
    PRIMARY KEY (run_id, plant_index)
);`

const createHourlyTableSQL = `
CREATE TABLE IF NOT EXISTS plant_hourly (
    time timestamp WITH TIME ZONE NOT NULL,
    run_id text NOT NULL,
    plant_index integer NOT NULL,
    poa_global float4 NULL,
    cell_temperature float4 NULL,
    dc_power float4 NULL,
    ac_power float4 NULL
);`

const createHypertableSQL = `SELECT create_hypertable('plant_hourly', 'time', if_not_exists => true);`

const createHourlyIndexSQL = `CREATE INDEX IF NOT EXISTS plant_hourly_run_idx ON plant_hourly (run_id, plant_index, time DESC);`

const createDailyViewSQL = `
CREATE MATERIALIZED VIEW IF NOT EXISTS plant_daily
WITH (timescaledb.continuous) AS
SELECT
    time_bucket('1 day', time) AS bucket,
    run_id,
    plant_index,
    sum(ac_power) / 1000 AS ac_energy_kwh,
    sum(dc_power) / 1000 AS dc_energy_kwh,
    max(ac_power) AS peak_ac_power,
    sum(poa_global) / 1000 AS poa_irradiation_kwh_m2
FROM plant_hourly
GROUP BY bucket, run_id, plant_index
WITH NO DATA;`

const refreshDailyViewSQL = `CALL refresh_continuous_aggregate('plant_daily', NULL, NULL);`

const deleteRunSQL = `DELETE FROM plant_hourly WHERE run_id = ?;`
